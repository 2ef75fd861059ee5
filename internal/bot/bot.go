package bot

import (
	"context"
	"ctftimebot/internal/config"
	"ctftimebot/internal/ctftime"
	"ctftimebot/internal/registry"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Queries the bot needs from the CTFTime directory
type Directory interface {
	Team(ctx context.Context, id ctftime.TeamId) (ctftime.Team, error)
	EventsBetween(ctx context.Context, limit int, start time.Time, finish time.Time) ([]ctftime.Event, error)
	UpcomingEvents(ctx context.Context, limit int) ([]ctftime.Event, error)
	Event(ctx context.Context, id ctftime.EventId) (ctftime.Event, error)
	TopTeams(ctx context.Context) (ctftime.Leaderboard, error)
	TopTeamsByYear(ctx context.Context, year int) (ctftime.Leaderboard, error)
	TopTeamsByCountry(ctx context.Context, countryCode string) ([]ctftime.RankedTeam, error)
}

// Number of events requested when looking for events in a date range
const RANGE_LIMIT = MAX_EVENTS

// Inbound message, stripped from the discord specifics
type Message struct {
	GuildId    string
	ChannelId  string
	AuthorId   string
	AuthorName string
	Content    string
}

type Bot struct {
	token     string
	prefix    string
	pageSize  int
	registry  *registry.Registry
	directory Directory
	roles     RoleService
	messenger Messenger
	now       func() time.Time
}

func New(cfg config.Config, registry *registry.Registry, directory Directory) *Bot {

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DEFAULT_PREFIX
	}
	return &Bot{
		token:     cfg.DiscordToken,
		prefix:    prefix,
		pageSize:  cfg.PageSize,
		registry:  registry,
		directory: directory,
		now:       time.Now,
	}
}

// Connect to discord and serve commands until the context is done
func (bot *Bot) Run(ctx context.Context) error {

	// Create session
	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	session := discordSession{discord}
	bot.roles = session
	bot.messenger = session

	// Event handlers
	discord.AddHandler(func(s *discordgo.Session, ready *discordgo.Ready) {
		log.Info().Msg(fmt.Sprintf("We have logged in as %s", ready.User.Username))
	})
	discord.AddHandler(bot.Receive)

	// Open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	log.Info().Msg("Bot running, waiting for commands")
	<-ctx.Done()
	log.Info().Msg("Closing discord session")

	return nil
}

func (bot *Bot) Receive(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages
	if message.Author == nil || message.Author.ID == discord.State.User.ID {
		return
	}

	// Every command gets its own logger
	logger := log.With().
		Str("request", uuid.NewString()).
		Str("guild", message.GuildID).
		Str("author", message.Author.Username).
		Logger()
	ctx := logger.WithContext(context.Background())

	responses := bot.Handle(ctx, Message{
		GuildId:    message.GuildID,
		ChannelId:  message.ChannelID,
		AuthorId:   message.Author.ID,
		AuthorName: message.Author.Username,
		Content:    message.Content,
	})
	bot.sendResponses(ctx, message.ChannelID, responses)
}

// Parse the message and run the command it contains. Messages not
// intended for the bot produce no responses
func (bot *Bot) Handle(ctx context.Context, message Message) []Response {

	logger := zerolog.Ctx(ctx)

	parseResult := Parse(message.Content, bot.prefix)
	switch parseResult.parseid {
	case PARSEID_NO_BOT_PREFIX:
		return nil
	case PARSEID_OK:
	default:
		// The command is invalid input, so it contains an error message
		logger.Info().Msg(fmt.Sprintf("Wrong input: '%s'. Reason: %s", message.Content, parseResult.errorMessage))
		return InputNotValid(parseResult.errorMessage)
	}

	// Ignore messages from private channels
	if message.GuildId == "" {
		logger.Info().Msg("Ignoring private message")
		return PrivateMessage()
	}

	logger.Info().Msg(fmt.Sprintf("Command understood: %s", message.Content))
	switch arguments := parseResult.arguments.(type) {
	case CtfArguments:
		switch parseResult.command {
		case COMMAND_CREATE_CTF:
			return bot.createCtf(ctx, message, arguments.Ctf)
		case COMMAND_DELETE_CTF:
			return bot.deleteCtf(ctx, message, arguments.Ctf)
		case COMMAND_JOIN_CTF:
			return bot.joinCtf(ctx, message, arguments.Ctf)
		case COMMAND_LEAVE_CTF:
			return bot.leaveCtf(ctx, message, arguments.Ctf)
		case COMMAND_LIST_CHALLENGES:
			return bot.listChallenges(arguments.Ctf)
		case COMMAND_SHOW_CTF:
			return bot.showCtf(arguments.Ctf)
		}
	case ChallengeArguments:
		switch parseResult.command {
		case COMMAND_ADD_CHALLENGE:
			return bot.addChallenge(arguments)
		case COMMAND_ALLOCATE_CHALLENGE:
			return bot.allocateChallenge(ctx, message, arguments)
		case COMMAND_SOLVE_CHALLENGE:
			return bot.solveChallenge(message, arguments)
		case COMMAND_DELETE_CHALLENGE:
			return bot.deleteChallenge(message, arguments)
		}
	case NumberArguments:
		switch parseResult.command {
		case COMMAND_LIST_CTFS, COMMAND_UPCOMING:
			return bot.upcoming(ctx, arguments.Number)
		case COMMAND_CURRENT_CTFS:
			return bot.current(ctx, arguments.Number)
		case COMMAND_TOP_TEAMS:
			return bot.topTeams(ctx, arguments.Number)
		}
	case ctftime.EventId:
		switch parseResult.command {
		case COMMAND_TIME_UNTIL_START:
			return bot.timeUntilStart(ctx, arguments)
		case COMMAND_TIME_LEFT:
			return bot.timeLeft(ctx, arguments)
		}
	case ctftime.TeamId:
		return bot.team(ctx, arguments)
	case RangeArguments:
		return bot.eventsBetween(ctx, arguments)
	case string:
		return bot.topCountry(ctx, arguments)
	case nil:
		return HelpMessage(bot.prefix)
	}

	panic(fmt.Sprintf("Command %d with arguments %T is not one of the possible ones", parseResult.command, parseResult.arguments))
}

func (bot *Bot) sendResponses(ctx context.Context, channelid string, responses []Response) {
	for _, response := range responses {
		if err := response.Send(channelid, bot.messenger); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg(fmt.Sprintf("Could not send response to channel %s", channelid))
		}
	}
}

func (bot *Bot) createCtf(ctx context.Context, message Message, ctf string) []Response {

	logger := zerolog.Ctx(ctx)
	if err := bot.registry.CreateEvent(ctf); err != nil {
		logger.Info().Err(err).Msg("Could not create CTF")
		return RegistryError(err)
	}

	// Create a role for the CTF if it does not exist yet
	roleName := RoleName(ctf)
	role, err := bot.roles.FindRole(message.GuildId, roleName)
	if err == nil && role == nil {
		role, err = bot.roles.CreateRole(message.GuildId, roleName)
		if err == nil {
			logger.Info().Msg(fmt.Sprintf("Created role: %s", roleName))
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Could not create role %s", roleName))
		return CtfCreatedWithoutRole(ctf)
	}
	return CtfCreated(ctf, role.Name)
}

// The registry deletion stands even if the role cannot be removed
func (bot *Bot) deleteCtf(ctx context.Context, message Message, ctf string) []Response {

	logger := zerolog.Ctx(ctx)
	if err := bot.registry.DeleteEvent(ctf); err != nil {
		logger.Info().Err(err).Msg("Could not delete CTF")
		return RegistryError(err)
	}

	role, err := bot.roles.FindRole(message.GuildId, RoleName(ctf))
	if err != nil {
		logger.Error().Err(err).Msg("Could not look for the role of the deleted CTF")
		return CtfDeletedRoleNotRemoved(ctf)
	}
	if role == nil {
		return CtfDeletedWithoutRole(ctf)
	}
	if err := bot.roles.DeleteRole(message.GuildId, role); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Could not delete role %s", role.Name))
		return CtfDeletedRoleNotRemoved(ctf)
	}
	return CtfDeleted(ctf)
}

func (bot *Bot) joinCtf(ctx context.Context, message Message, ctf string) []Response {

	if err := bot.registry.JoinEvent(ctf, message.AuthorName); err != nil {
		return RegistryError(err)
	}
	role, responses := bot.assignRole(ctx, message, ctf)
	if role == nil {
		return responses
	}
	return CtfJoined(ctf, role.Name)
}

// Leaving does not release the challenges allocated to the user
func (bot *Bot) leaveCtf(ctx context.Context, message Message, ctf string) []Response {

	logger := zerolog.Ctx(ctx)
	if err := bot.registry.LeaveEvent(ctf, message.AuthorName); err != nil {
		return RegistryError(err)
	}

	role, err := bot.roles.FindRole(message.GuildId, RoleName(ctf))
	if err != nil {
		logger.Error().Err(err).Msg("Could not look for the role of the CTF")
		return RoleNotUpdated(ctf)
	}
	if role == nil {
		return RoleNotFound(ctf)
	}
	if err := bot.roles.RevokeRole(message.GuildId, message.AuthorId, role); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Could not remove role %s", role.Name))
		return RoleNotUpdated(ctf)
	}
	logger.Info().Msg(fmt.Sprintf("Removed role %s from %s", role.Name, message.AuthorName))
	return CtfLeft(ctf, role.Name)
}

func (bot *Bot) addChallenge(arguments ChallengeArguments) []Response {

	if err := bot.registry.AddChallenge(arguments.Ctf, arguments.Challenge); err != nil {
		return RegistryError(err)
	}
	return ChallengeAdded(arguments.Challenge, arguments.Ctf)
}

func (bot *Bot) allocateChallenge(ctx context.Context, message Message, arguments ChallengeArguments) []Response {

	claim, err := bot.registry.ClaimChallenge(arguments.Ctf, arguments.Challenge, message.AuthorName)
	if err != nil {
		return RegistryError(err)
	}

	var responses []Response
	if claim.Created {
		responses = append(responses, ChallengeAdded(arguments.Challenge, arguments.Ctf)...)
	}
	if claim.AlreadyHeld {
		return append(responses, ChallengeAlreadyYours(arguments.Challenge, arguments.Ctf)...)
	}

	// Whoever works on a challenge takes part in the CTF
	if role, failure := bot.assignRole(ctx, message, arguments.Ctf); role == nil {
		responses = append(responses, failure...)
	}
	return append(responses, ChallengeAllocated(arguments.Challenge, arguments.Ctf, message.AuthorName)...)
}

func (bot *Bot) solveChallenge(message Message, arguments ChallengeArguments) []Response {

	if err := bot.registry.SolveChallenge(arguments.Ctf, arguments.Challenge, message.AuthorName); err != nil {
		return RegistryError(err)
	}
	return ChallengeSolved(arguments.Challenge, arguments.Ctf, message.AuthorName)
}

func (bot *Bot) deleteChallenge(message Message, arguments ChallengeArguments) []Response {

	if err := bot.registry.DeleteChallenge(arguments.Ctf, arguments.Challenge, message.AuthorName); err != nil {
		return RegistryError(err)
	}
	return ChallengeDeleted(arguments.Challenge, arguments.Ctf)
}

func (bot *Bot) listChallenges(ctf string) []Response {

	challenges, err := bot.registry.ListChallenges(ctf)
	if err != nil {
		return RegistryError(err)
	}
	return ChallengePages(ctf, challenges, bot.pageSize)
}

func (bot *Bot) showCtf(ctf string) []Response {

	description, err := bot.registry.DescribeEvent(ctf)
	if err != nil {
		return RegistryError(err)
	}
	return CtfDetails(description)
}

// Give the author the role of the CTF. On failure the role is nil
// and the responses explain what happened
func (bot *Bot) assignRole(ctx context.Context, message Message, ctf string) (*discordgo.Role, []Response) {

	logger := zerolog.Ctx(ctx)
	role, err := bot.roles.FindRole(message.GuildId, RoleName(ctf))
	if err != nil {
		logger.Error().Err(err).Msg("Could not look for the role of the CTF")
		return nil, RoleNotUpdated(ctf)
	}
	if role == nil {
		return nil, RoleNotFound(ctf)
	}
	if err := bot.roles.AssignRole(message.GuildId, message.AuthorId, role); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Could not assign role %s", role.Name))
		return nil, RoleNotUpdated(ctf)
	}
	logger.Info().Msg(fmt.Sprintf("Assigned role %s to %s", role.Name, message.AuthorName))
	return role, nil
}

func (bot *Bot) upcoming(ctx context.Context, limit int) []Response {

	events, err := bot.directory.UpcomingEvents(ctx, limit)
	if err != nil {
		return DirectoryUnavailable()
	}
	if len(events) == 0 {
		return NoUpcomingEvents()
	}
	return EventList("Upcoming CTF Events", events, bot.pageSize)
}

func (bot *Bot) current(ctx context.Context, limit int) []Response {

	events, err := bot.directory.UpcomingEvents(ctx, limit)
	if err != nil {
		return DirectoryUnavailable()
	}
	if len(events) == 0 {
		return NoUpcomingEvents()
	}

	now := bot.now()
	ongoing := []ctftime.Event{}
	for _, event := range events {
		if event.Ongoing(now) {
			ongoing = append(ongoing, event)
		}
	}
	if len(ongoing) == 0 {
		return NoOngoingEvents()
	}
	return EventList("Currently Ongoing CTF Events", ongoing, bot.pageSize)
}

func (bot *Bot) eventsBetween(ctx context.Context, arguments RangeArguments) []Response {

	events, err := bot.directory.EventsBetween(ctx, RANGE_LIMIT, arguments.Start, arguments.Finish)
	if err != nil {
		return DirectoryUnavailable()
	}
	if len(events) == 0 {
		return NoEventsBetween(arguments.Start, arguments.Finish)
	}
	return EventList("CTF Events", events, bot.pageSize)
}

func (bot *Bot) timeUntilStart(ctx context.Context, id ctftime.EventId) []Response {

	event, err := bot.directory.Event(ctx, id)
	if err != nil {
		return DirectoryUnavailable()
	}
	until := event.Start.Sub(bot.now())
	if until <= 0 {
		return AlreadyStarted(event)
	}
	return TimeUntilStart(event, until)
}

func (bot *Bot) timeLeft(ctx context.Context, id ctftime.EventId) []Response {

	event, err := bot.directory.Event(ctx, id)
	if err != nil {
		return DirectoryUnavailable()
	}
	left := event.Finish.Sub(bot.now())
	if left <= 0 {
		return AlreadyEnded(event)
	}
	return TimeLeft(event, left)
}

func (bot *Bot) team(ctx context.Context, id ctftime.TeamId) []Response {

	team, err := bot.directory.Team(ctx, id)
	if err != nil {
		return DirectoryUnavailable()
	}
	return TeamDetails(team)
}

// Top teams of the current year, or of the provided year
func (bot *Bot) topTeams(ctx context.Context, year int) []Response {

	var leaderboard ctftime.Leaderboard
	var err error
	if year == 0 {
		leaderboard, err = bot.directory.TopTeams(ctx)
	} else {
		leaderboard, err = bot.directory.TopTeamsByYear(ctx, year)
	}
	if err != nil {
		return DirectoryUnavailable()
	}
	return LeaderboardMessage(leaderboard)
}

func (bot *Bot) topCountry(ctx context.Context, countryCode string) []Response {

	teams, err := bot.directory.TopTeamsByCountry(ctx, countryCode)
	if err != nil {
		return DirectoryUnavailable()
	}
	return CountryLeaderboard(countryCode, teams)
}
