package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Roles are named after the custom CTF they belong to
const ROLE_PREFIX = "CTF: "

func RoleName(ctf string) string {
	return ROLE_PREFIX + ctf
}

// Role management on the chat platform. FindRole returns a nil role
// and no error when the role does not exist
type RoleService interface {
	CreateRole(guildid string, name string) (*discordgo.Role, error)
	FindRole(guildid string, name string) (*discordgo.Role, error)
	DeleteRole(guildid string, role *discordgo.Role) error
	AssignRole(guildid string, userid string, role *discordgo.Role) error
	RevokeRole(guildid string, userid string, role *discordgo.Role) error
}

// Messenger and role service on top of a discord session
type discordSession struct {
	session *discordgo.Session
}

func (d discordSession) SendText(channelid string, content string) error {
	_, err := d.session.ChannelMessageSend(channelid, content)
	return err
}

func (d discordSession) SendEmbed(channelid string, embed *discordgo.MessageEmbed) error {
	_, err := d.session.ChannelMessageSendEmbed(channelid, embed)
	return err
}

func (d discordSession) CreateRole(guildid string, name string) (*discordgo.Role, error) {
	mentionable := true
	role, err := d.session.GuildRoleCreate(guildid, &discordgo.RoleParams{Name: name, Mentionable: &mentionable})
	if err != nil {
		return nil, fmt.Errorf("could not create role %s in guild %s: %w", name, guildid, err)
	}
	return role, nil
}

func (d discordSession) FindRole(guildid string, name string) (*discordgo.Role, error) {
	roles, err := d.session.GuildRoles(guildid)
	if err != nil {
		return nil, fmt.Errorf("could not extract list of roles of guild id %s: %w", guildid, err)
	}
	for _, role := range roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, nil
}

func (d discordSession) DeleteRole(guildid string, role *discordgo.Role) error {
	return d.session.GuildRoleDelete(guildid, role.ID)
}

func (d discordSession) AssignRole(guildid string, userid string, role *discordgo.Role) error {
	return d.session.GuildMemberRoleAdd(guildid, userid, role.ID)
}

func (d discordSession) RevokeRole(guildid string, userid string, role *discordgo.Role) error {
	return d.session.GuildMemberRoleRemove(guildid, userid, role.ID)
}
