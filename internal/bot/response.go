package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Anything able to deliver messages to a channel
type Messenger interface {
	SendText(channelid string, content string) error
	SendEmbed(channelid string, embed *discordgo.MessageEmbed) error
}

type ResponseString struct {
	string
}
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

type Response interface {
	Send(channelid string, messenger Messenger) error
}

func (response ResponseString) Send(channelid string, messenger Messenger) error {
	return messenger.SendText(channelid, response.string)
}

func (response ResponseEmbed) Send(channelid string, messenger Messenger) error {
	return messenger.SendEmbed(channelid, &response.MessageEmbed)
}
