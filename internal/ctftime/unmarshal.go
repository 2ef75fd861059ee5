package ctftime

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

func UnmarshalEvent(data []byte) (Event, error) {

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if event.Id == 0 && event.Title == "" {
		return Event{}, fmt.Errorf("event not present in response")
	}
	return event, nil
}

func UnmarshalEvents(data []byte) ([]Event, error) {

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func UnmarshalTeam(data []byte) (Team, error) {

	var team Team
	if err := json.Unmarshal(data, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// The leaderboards come keyed by year: {"2024": [...]}.
// Places are not part of the payload, they follow the order of the list
func UnmarshalLeaderboards(data []byte) ([]Leaderboard, error) {

	var raw map[string][]RankedTeam
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	leaderboards := make([]Leaderboard, 0, len(raw))
	for key, teams := range raw {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("leaderboard year is not correctly formatted in response: %s", key)
		}
		for i := range teams {
			if teams[i].Place == 0 {
				teams[i].Place = i + 1
			}
		}
		leaderboards = append(leaderboards, Leaderboard{Year: year, Teams: teams})
	}

	// Most recent first
	sort.Slice(leaderboards, func(i, j int) bool { return leaderboards[i].Year > leaderboards[j].Year })
	return leaderboards, nil
}

func UnmarshalCountryTeams(data []byte) ([]RankedTeam, error) {

	var teams []RankedTeam
	if err := json.Unmarshal(data, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}
