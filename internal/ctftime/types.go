package ctftime

import (
	"fmt"
	"time"
)

type EventId int
type TeamId int

type Event struct {
	Id           EventId     `json:"id"`
	CtfId        int         `json:"ctf_id"`
	Title        string      `json:"title"`
	Start        time.Time   `json:"start"`
	Finish       time.Time   `json:"finish"`
	Url          string      `json:"url"`
	CtftimeUrl   string      `json:"ctftime_url"`
	Format       string      `json:"format"`
	Weight       float64     `json:"weight"`
	Onsite       bool        `json:"onsite"`
	Location     string      `json:"location"`
	Participants int         `json:"participants"`
	Organizers   []Organizer `json:"organizers"`
}

type Organizer struct {
	Id   TeamId `json:"id"`
	Name string `json:"name"`
}

// Rating of a team for one year
type Rating struct {
	RatingPlace  int     `json:"rating_place"`
	RatingPoints float64 `json:"rating_points"`
	CountryPlace int     `json:"country_place"`
}

type Team struct {
	Id       TeamId            `json:"id"`
	Name     string            `json:"name"`
	Country  string            `json:"country"`
	Academic bool              `json:"academic"`
	Aliases  []string          `json:"aliases"`
	Rating   map[string]Rating `json:"rating"`
}

// Entry of a leaderboard. The global leaderboard does not send places,
// so they are filled in from the position in the list
type RankedTeam struct {
	Id           TeamId  `json:"team_id"`
	Name         string  `json:"team_name"`
	Points       float64 `json:"points"`
	Place        int     `json:"place"`
	CountryPlace int     `json:"country_place"`
	Country      string  `json:"team_country"`
	Events       int     `json:"events"`
}

// Leaderboard of a year
type Leaderboard struct {
	Year  int
	Teams []RankedTeam
}

// Ongoing at the provided time
func (event *Event) Ongoing(now time.Time) bool {
	return !now.Before(event.Start) && !now.After(event.Finish)
}

func (event *Event) String() string {
	return fmt.Sprintf("%s (%d)", event.Title, event.Id)
}
