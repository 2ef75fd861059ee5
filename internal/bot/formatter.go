package bot

import (
	"ctftimebot/internal/ctftime"
	"ctftimebot/internal/registry"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Use "green" color for the bot
const color int = 0x00ff00

// Limits imposed by discord on embeds
const (
	MAX_TITLE       = 256
	MAX_FIELD_NAME  = 256
	MAX_FIELD_VALUE = 1024
	MAX_FIELDS      = 25
	MAX_EMBED       = 6000
)

func text(format string, a ...any) []Response {
	return []Response{ResponseString{fmt.Sprintf(format, a...)}}
}

func InputNotValid(errorMessage string) []Response {
	return text("Input not valid: \n> %s", errorMessage)
}

func PrivateMessage() []Response {
	return text("For the time being, I am ignoring private messages")
}

func HelpMessage(prefix string) []Response {

	embed := discordgo.MessageEmbed{Title: "CTFTime Bot Help", Description: "Available commands:", Color: color}
	for _, info := range commands {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   info.usage(prefix),
			Value:  info.description,
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

// Fixed message for every kind of registry error
func RegistryError(err error) []Response {

	var e *registry.Error
	if !errors.As(err, &e) {
		return text("Something went wrong, please try again later.")
	}

	switch e.Kind {
	case registry.KindNotFound:
		if e.Challenge != "" {
			return text("The challenge '%s' does not exist in CTF '%s'.", e.Challenge, e.Event)
		}
		return text("CTF '%s' does not exist.", e.Event)
	case registry.KindAlreadyExists:
		if e.Challenge != "" {
			return text("The challenge '%s' already exists in CTF '%s'.", e.Challenge, e.Event)
		}
		return text("A CTF with the name '%s' already exists.", e.Event)
	case registry.KindAlreadyClaimed:
		return text("The challenge '%s' is already allocated to %s.", e.Challenge, e.Claimant)
	case registry.KindNotOwner:
		if e.Claimant == "" {
			return text("The challenge '%s' is not allocated to anyone. Allocate it to yourself first.", e.Challenge)
		}
		return text("The challenge '%s' is allocated to %s, not you.", e.Challenge, e.Claimant)
	case registry.KindInvalid:
		return text("Names cannot be empty and must be valid text.")
	case registry.KindPersistence:
		return text("Could not save the custom CTFs, nothing was changed.")
	default:
		return text("Something went wrong, please try again later.")
	}
}

func DirectoryUnavailable() []Response {
	return text("Could not get a response from CTFTime, please try again later.")
}

func CtfCreated(ctf string, roleName string) []Response {
	return text("The Epic CTF '%s' has been created. Role '%s' has been created.", ctf, roleName)
}

func CtfCreatedWithoutRole(ctf string) []Response {
	return text("The Epic CTF '%s' has been created, but its role could not be created.", ctf)
}

func CtfDeleted(ctf string) []Response {
	return text("CTF '%s' and its associated role have been deleted.", ctf)
}

func CtfDeletedWithoutRole(ctf string) []Response {
	return text("CTF '%s' has been deleted, but no associated role was found.", ctf)
}

func CtfDeletedRoleNotRemoved(ctf string) []Response {
	return text("CTF '%s' has been deleted, but its role could not be removed.", ctf)
}

func CtfJoined(ctf string, roleName string) []Response {
	return text("You have joined CTF '%s'. Role '%s' has been assigned.", ctf, roleName)
}

func CtfLeft(ctf string, roleName string) []Response {
	return text("You have left CTF '%s'. Role '%s' has been removed.", ctf, roleName)
}

func RoleNotFound(ctf string) []Response {
	return text("Role for CTF '%s' not found.", ctf)
}

func RoleNotUpdated(ctf string) []Response {
	return text("Could not update your role for CTF '%s'.", ctf)
}

func ChallengeAdded(challenge string, ctf string) []Response {
	return text("The challenge '%s' has been added to CTF '%s'.", challenge, ctf)
}

func ChallengeAllocated(challenge string, ctf string, user string) []Response {
	return text("The challenge '%s' in CTF '%s' has been allocated to %s.", challenge, ctf, user)
}

func ChallengeAlreadyYours(challenge string, ctf string) []Response {
	return text("You are already working on the challenge '%s' in CTF '%s'.", challenge, ctf)
}

func ChallengeSolved(challenge string, ctf string, user string) []Response {
	return text("The challenge '%s' in CTF '%s' has been marked as solved by %s.", challenge, ctf, user)
}

func ChallengeDeleted(challenge string, ctf string) []Response {
	return text("The challenge '%s' has been deleted from CTF '%s'.", challenge, ctf)
}

func NoChallenges(ctf string) []Response {
	return text("No challenges have been added to CTF '%s' yet.", ctf)
}

// Status of a challenge in three lines
func ChallengeStatus(challenge registry.Challenge) string {

	status := "Unsolved"
	if challenge.Solved {
		status = "Solved"
	}
	workingOn := "Not being worked on"
	if challenge.InProgress {
		workingOn = fmt.Sprintf("Working on it: %s", challenge.Claimant)
	}
	solvedBy := "Not solved yet"
	if challenge.Solved {
		solvedBy = fmt.Sprintf("Solved by: %s", challenge.Claimant)
	}
	return fmt.Sprintf("Status: %s\n%s\n%s", status, workingOn, solvedBy)
}

// One embed per page of challenges
func ChallengePages(ctf string, challenges iter.Seq2[string, registry.Challenge], pageSize int) []Response {

	var fields []*discordgo.MessageEmbedField
	for name, challenge := range challenges {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   truncate(name, MAX_FIELD_NAME),
			Value:  ChallengeStatus(challenge),
			Inline: false,
		})
	}
	if len(fields) == 0 {
		return NoChallenges(ctf)
	}
	return pagedEmbeds(paginate(fields, pageSize), func(page int, pages int) string {
		return fmt.Sprintf("Challenges for CTF '%s' (Page %d/%d)", ctf, page, pages)
	})
}

func CtfDetails(description registry.Description) []Response {

	title := RoleName(description.Name)

	if len(description.Solved) == 0 && len(description.Unsolved) == 0 {
		embed := discordgo.MessageEmbed{Title: truncate(title, MAX_TITLE), Color: color}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Challenges",
			Value:  "No challenges have been added to this CTF yet.",
			Inline: false,
		})
		return []Response{ResponseEmbed{embed}}
	}

	entries := func(entries []registry.Entry) []string {
		result := make([]string, len(entries))
		for i, entry := range entries {
			result[i] = fmt.Sprintf("**%s**\n%s", entry.Name, ChallengeStatus(entry.Challenge))
		}
		return result
	}
	fields := chunkedFields("Solved Challenges", entries(description.Solved))
	fields = append(fields, chunkedFields("Unsolved Challenges", entries(description.Unsolved))...)

	return pagedEmbeds(paginate(fields, MAX_FIELDS), continued(title))
}

// Fields holding the items under the provided name, as many as needed
// to respect the size of a field value
func chunkedFields(name string, items []string) []*discordgo.MessageEmbedField {

	var fields []*discordgo.MessageEmbedField
	fieldName := name
	value := ""
	flush := func() {
		if value == "" {
			return
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: fieldName, Value: value, Inline: false})
		fieldName = name + " (cont.)"
		value = ""
	}
	for _, item := range items {
		item = truncate(item, MAX_FIELD_VALUE)
		if value != "" && utf8.RuneCountInString(value)+2+utf8.RuneCountInString(item) > MAX_FIELD_VALUE {
			flush()
		}
		if value != "" {
			value += "\n\n"
		}
		value += item
	}
	flush()
	return fields
}

// Spread the fields over pages. A page never holds more than pageSize
// fields, and its fields leave room for a title within the size of an embed
func paginate(fields []*discordgo.MessageEmbedField, pageSize int) [][]*discordgo.MessageEmbedField {

	if pageSize <= 0 || pageSize > MAX_FIELDS {
		pageSize = MAX_FIELDS
	}

	var pages [][]*discordgo.MessageEmbedField
	size := 0
	for _, field := range fields {
		fieldSize := utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
		if len(pages) == 0 || len(pages[len(pages)-1]) == pageSize || size+fieldSize > MAX_EMBED-MAX_TITLE {
			pages = append(pages, nil)
			size = 0
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], field)
		size += fieldSize
	}
	return pages
}

// One embed per page, titled from the page number (starting at 1)
// and the number of pages
func pagedEmbeds(pages [][]*discordgo.MessageEmbedField, title func(page int, pages int) string) []Response {

	responses := make([]Response, 0, len(pages))
	for i, fields := range pages {
		embed := discordgo.MessageEmbed{Title: truncate(title(i+1, len(pages)), MAX_TITLE), Color: color, Fields: fields}
		responses = append(responses, ResponseEmbed{embed})
	}
	return responses
}

// The title on the first page, marked as a continuation on the rest
func continued(title string) func(int, int) string {
	return func(page int, pages int) string {
		if page == 1 {
			return title
		}
		return title + " (cont.)"
	}
}

// List of events, spread over several embeds if needed
func EventList(title string, events []ctftime.Event, pageSize int) []Response {

	fields := make([]*discordgo.MessageEmbedField, 0, len(events))
	for _, event := range events {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   truncate(event.Title, MAX_FIELD_NAME),
			Value:  truncate(EventMessageValue(event), MAX_FIELD_VALUE),
			Inline: false,
		})
	}
	if len(fields) == 0 {
		return []Response{ResponseEmbed{discordgo.MessageEmbed{Title: title, Color: color}}}
	}
	return pagedEmbeds(paginate(fields, pageSize), continued(title))
}

func EventMessageValue(event ctftime.Event) string {
	return fmt.Sprintf("ID: %d\nStart: %s\nFinish: %s\nURL: %s", event.Id, formatTime(event.Start), formatTime(event.Finish), event.Url)
}

func NoUpcomingEvents() []Response {
	return text("No upcoming events received from CTFTime")
}

func NoOngoingEvents() []Response {
	embed := discordgo.MessageEmbed{Title: "Currently Ongoing CTF Events", Color: color}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "No ongoing events",
		Value:  "There are no CTF events currently ongoing.",
		Inline: false,
	})
	return []Response{ResponseEmbed{embed}}
}

func NoEventsBetween(start time.Time, finish time.Time) []Response {
	return text("No events found between %s and %s", start.Format(time.DateOnly), finish.Format(time.DateOnly))
}

func TimeUntilStart(event ctftime.Event, until time.Duration) []Response {
	return text("Time until the event '%s' starts:\n- Epoch Time: %d\n- Human-Readable: %s", event.Title, event.Start.Unix(), FormatDuration(until))
}

func AlreadyStarted(event ctftime.Event) []Response {
	return text("The event '%s' has already started.", event.Title)
}

func TimeLeft(event ctftime.Event, left time.Duration) []Response {
	return text("Time left for the event '%s': %s", event.Title, FormatDuration(left))
}

func AlreadyEnded(event ctftime.Event) []Response {
	return text("The event '%s' has already ended.", event.Title)
}

func TeamDetails(team ctftime.Team) []Response {

	embed := discordgo.MessageEmbed{
		Title: truncate(fmt.Sprintf("%s (%d)", team.Name, team.Id), MAX_TITLE),
		URL:   fmt.Sprintf("https://ctftime.org/team/%d", team.Id),
		Color: color,
	}
	country := team.Country
	if country == "" {
		country = "Unknown"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Country", Value: country, Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Academic", Value: fmt.Sprint(team.Academic), Inline: true})
	if len(team.Aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Aliases",
			Value:  truncate(strings.Join(team.Aliases, ", "), MAX_FIELD_VALUE),
			Inline: false,
		})
	}

	// Ratings, most recent year first
	years := make([]string, 0, len(team.Rating))
	for year := range team.Rating {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	for _, year := range years {
		if len(embed.Fields) >= MAX_FIELDS {
			break
		}
		rating := team.Rating[year]
		if rating.RatingPlace == 0 {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("Rating %s", year),
			Value:  fmt.Sprintf("Place %d with %.2f points (country place %d)", rating.RatingPlace, rating.RatingPoints, rating.CountryPlace),
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

func LeaderboardMessage(leaderboard ctftime.Leaderboard) []Response {

	embed := discordgo.MessageEmbed{Title: fmt.Sprintf("Top teams of %d", leaderboard.Year), Color: color}
	if len(leaderboard.Teams) == 0 {
		embed.Description = "No teams ranked yet"
	}
	embed.Description += rankedTeamLines(leaderboard.Teams, func(team ctftime.RankedTeam) int { return team.Place })
	return []Response{ResponseEmbed{embed}}
}

func CountryLeaderboard(countryCode string, teams []ctftime.RankedTeam) []Response {

	embed := discordgo.MessageEmbed{Title: fmt.Sprintf("Top teams of %s", strings.ToUpper(countryCode)), Color: color}
	if len(teams) == 0 {
		embed.Description = "No teams ranked in this country"
	}
	embed.Description += rankedTeamLines(teams, func(team ctftime.RankedTeam) int { return team.CountryPlace })
	return []Response{ResponseEmbed{embed}}
}

func rankedTeamLines(teams []ctftime.RankedTeam, place func(ctftime.RankedTeam) int) string {
	lines := make([]string, 0, len(teams))
	for _, team := range teams {
		lines = append(lines, fmt.Sprintf("%d. **%s** (%d): %.2f points", place(team), team.Name, team.Id, team.Points))
	}
	// Description limit of an embed
	return truncate(strings.Join(lines, "\n"), 4096)
}

// Human readable duration, like "2 days, 3 hours, 15 minutes"
func FormatDuration(d time.Duration) string {

	if d < 0 {
		d = -d
	}
	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, minutes)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
