package bot

import (
	"ctftimebot/internal/ctftime"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DEFAULT_PREFIX string = "!"

// Most events a listing command asks CTFTime for
const MAX_EVENTS = 100

const (
	COMMAND_HELP = iota
	COMMAND_CREATE_CTF
	COMMAND_DELETE_CTF
	COMMAND_JOIN_CTF
	COMMAND_LEAVE_CTF
	COMMAND_ADD_CHALLENGE
	COMMAND_ALLOCATE_CHALLENGE
	COMMAND_SOLVE_CHALLENGE
	COMMAND_DELETE_CHALLENGE
	COMMAND_LIST_CHALLENGES
	COMMAND_SHOW_CTF
	COMMAND_LIST_CTFS
	COMMAND_UPCOMING
	COMMAND_CURRENT_CTFS
	COMMAND_CTFS_BETWEEN
	COMMAND_TIME_UNTIL_START
	COMMAND_TIME_LEFT
	COMMAND_TEAM
	COMMAND_TOP_TEAMS
	COMMAND_TOP_COUNTRY
)

const (
	PARSEID_OK = iota
	PARSEID_NO_BOT_PREFIX
	PARSEID_NO_COMMAND
	PARSEID_COMMAND_NOT_RECOGNISED
	PARSEID_NO_INPUT
	PARSEID_NOT_A_NUMBER
	PARSEID_NOT_A_DATE
	PARSEID_UNTERMINATED_QUOTE
)

var errorMessages map[int]string = map[int]string{
	PARSEID_NO_COMMAND:             "No command provided",
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Usage: `%s`",
	PARSEID_NOT_A_NUMBER:           "Input `%s` is not a valid number",
	PARSEID_NOT_A_DATE:             "Input `%s` is not a date like 2024-12-31",
	PARSEID_UNTERMINATED_QUOTE:     "The CTF name in `%s` has no closing quote",
}

// Name, arguments and description of every command, in the order
// they appear in the help message
type commandInfo struct {
	command     int
	name        string
	arguments   string
	description string
}

var commands = []commandInfo{
	{COMMAND_CREATE_CTF, "create_ctf", "<name>", "Create a new custom CTF event with the given name. Names with spaces go between double quotes in the other commands, like `\"Google CTF\"`."},
	{COMMAND_DELETE_CTF, "delete_ctf", "<ctf_name>", "Delete a custom CTF event by name."},
	{COMMAND_JOIN_CTF, "join_ctf", "<ctf_name>", "Join a custom CTF event and get the associated role."},
	{COMMAND_LEAVE_CTF, "leave_ctf", "<ctf_name>", "Leave a CTF and remove the associated role."},
	{COMMAND_ADD_CHALLENGE, "add_challenge", "<ctf_name> <challenge_name>", "Add a new challenge to a specific CTF."},
	{COMMAND_DELETE_CHALLENGE, "delete_challenge", "<ctf_name> <challenge_name>", "Delete a challenge you are working on from a specific CTF."},
	{COMMAND_ALLOCATE_CHALLENGE, "allocate_challenge", "<ctf_name> <challenge_name>", "Allocate a challenge to yourself in a specific CTF."},
	{COMMAND_SOLVE_CHALLENGE, "solve_challenge", "<ctf_name> <challenge_name>", "Mark a challenge as solved in a specific CTF."},
	{COMMAND_LIST_CHALLENGES, "list_challenges", "<ctf_name>", "List all challenges for a specific CTF."},
	{COMMAND_SHOW_CTF, "show_ctf", "<ctf_name>", "Show details of a specific CTF, including solved and unsolved challenges."},
	{COMMAND_LIST_CTFS, "list_ctfs", "[limit]", "List upcoming CTF events with their IDs."},
	{COMMAND_UPCOMING, "upcoming", "[limit]", "Fetch a specified number of upcoming events (default is 5)."},
	{COMMAND_CURRENT_CTFS, "current_ctfs", "[limit]", "List the events that are currently running."},
	{COMMAND_CTFS_BETWEEN, "ctfs_between", "<start_date> <finish_date>", "List the events starting between two dates (YYYY-MM-DD)."},
	{COMMAND_TIME_UNTIL_START, "time_until_start", "<event_id>", "Get the time remaining until a specific CTF event starts."},
	{COMMAND_TIME_LEFT, "time_left", "<event_id>", "Get the remaining time for a specific CTF event."},
	{COMMAND_TEAM, "team", "<team_id>", "Show the details of a CTFTime team."},
	{COMMAND_TOP_TEAMS, "top_teams", "[year]", "Show the top 10 teams of the current year, or of the given year."},
	{COMMAND_TOP_COUNTRY, "top_country", "<country_code>", "Show the top teams of a country (e.g. `pl`)."},
	{COMMAND_HELP, "help_ctftime", "", "Print the usage of the different commands."},
}

// Arguments of the commands about a custom CTF
type CtfArguments struct {
	Ctf string
}

// Arguments of the commands about a challenge of a custom CTF
type ChallengeArguments struct {
	Ctf       string
	Challenge string
}

// Optional number (limit, year). Zero when not provided
type NumberArguments struct {
	Number int
}

type RangeArguments struct {
	Start  time.Time
	Finish time.Time
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

func Parse(message string, prefix string) ParseResult {

	// The message has to start with the bot prefix
	if !strings.HasPrefix(message, prefix) {
		log.Debug().Msg("Reject message not intended for the bot")
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	// Get the command if valid
	words := strings.Fields(message[len(prefix):])
	if len(words) == 0 {
		parseid := PARSEID_NO_COMMAND
		return ParseResult{parseid: parseid, errorMessage: errorMessages[parseid]}
	}
	commandString := words[0]
	words = words[1:]

	// Match the command
	info, found := findCommand(commandString)
	if !found {
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
	noInput := func() ParseResult {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: info.command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], info.usage(prefix))}
	}
	result := func(arguments interface{}) ParseResult {
		return ParseResult{command: info.command, parseid: PARSEID_OK, arguments: arguments}
	}

	switch info.command {
	case COMMAND_CREATE_CTF, COMMAND_DELETE_CTF, COMMAND_JOIN_CTF, COMMAND_LEAVE_CTF,
		COMMAND_LIST_CHALLENGES, COMMAND_SHOW_CTF:
		// !create_ctf <name with spaces>, optionally quoted
		if len(words) == 0 {
			return noInput()
		}
		if ctf, rest, found := ctfName(words); found && len(rest) == 0 {
			return result(CtfArguments{Ctf: ctf})
		}
		return result(CtfArguments{Ctf: strings.Join(words, " ")})
	case COMMAND_ADD_CHALLENGE, COMMAND_ALLOCATE_CHALLENGE, COMMAND_SOLVE_CHALLENGE, COMMAND_DELETE_CHALLENGE:
		// !add_challenge <ctf_name or "ctf name"> <challenge name with spaces>
		if len(words) < 2 {
			return noInput()
		}
		ctf, rest, found := ctfName(words)
		if !found {
			parseid := PARSEID_UNTERMINATED_QUOTE
			return ParseResult{command: info.command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], strings.Join(words, " "))}
		}
		if len(rest) == 0 {
			return noInput()
		}
		return result(ChallengeArguments{Ctf: ctf, Challenge: strings.Join(rest, " ")})
	case COMMAND_LIST_CTFS, COMMAND_UPCOMING, COMMAND_CURRENT_CTFS, COMMAND_TOP_TEAMS:
		// !upcoming [limit]
		if len(words) == 0 {
			return result(NumberArguments{})
		}
		return parseNumber(info.command, words[0], result)
	case COMMAND_TIME_UNTIL_START, COMMAND_TIME_LEFT, COMMAND_TEAM:
		// !time_left <event_id>
		if len(words) == 0 {
			return noInput()
		}
		return parseNumber(info.command, words[0], result)
	case COMMAND_TOP_COUNTRY:
		// !top_country <code>
		if len(words) == 0 {
			return noInput()
		}
		return result(words[0])
	case COMMAND_CTFS_BETWEEN:
		// !ctfs_between <start> <finish>
		if len(words) < 2 {
			return noInput()
		}
		return parseRange(info.command, words[0], words[1], result)
	default:
		// !help_ctftime
		return result(nil)
	}
}

func findCommand(name string) (commandInfo, bool) {
	for _, info := range commands {
		if info.name == name {
			return info, true
		}
	}
	return commandInfo{}, false
}

// Name of a custom CTF at the start of the words and the words after it.
// A name starting with a double quote runs until the closing quote
func ctfName(words []string) (string, []string, bool) {

	if !strings.HasPrefix(words[0], `"`) {
		return words[0], words[1:], true
	}
	for i, word := range words {
		if (i > 0 || len(word) > 1) && strings.HasSuffix(word, `"`) {
			name := strings.Join(words[:i+1], " ")
			return name[1 : len(name)-1], words[i+1:], true
		}
	}
	return "", nil, false
}

func (info commandInfo) usage(prefix string) string {
	if info.arguments == "" {
		return prefix + info.name
	}
	return fmt.Sprintf("%s%s %s", prefix, info.name, info.arguments)
}

func parseNumber(command int, word string, result func(interface{}) ParseResult) ParseResult {

	number, err := strconv.Atoi(word)
	if err != nil || number <= 0 {
		parseid := PARSEID_NOT_A_NUMBER
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], word)}
	}
	switch command {
	case COMMAND_TIME_UNTIL_START, COMMAND_TIME_LEFT:
		return result(ctftime.EventId(number))
	case COMMAND_TEAM:
		return result(ctftime.TeamId(number))
	case COMMAND_LIST_CTFS, COMMAND_UPCOMING, COMMAND_CURRENT_CTFS:
		return result(NumberArguments{Number: min(number, MAX_EVENTS)})
	default:
		return result(NumberArguments{Number: number})
	}
}

func parseRange(command int, startWord string, finishWord string, result func(interface{}) ParseResult) ParseResult {

	start, err := time.Parse(time.DateOnly, startWord)
	if err != nil {
		parseid := PARSEID_NOT_A_DATE
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], startWord)}
	}
	finish, err := time.Parse(time.DateOnly, finishWord)
	if err != nil {
		parseid := PARSEID_NOT_A_DATE
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], finishWord)}
	}
	// The finish date is included
	return result(RangeArguments{Start: start, Finish: finish.Add(24*time.Hour - time.Second)})
}
