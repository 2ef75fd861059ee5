package ctftime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventJson = `{"organizers": [{"id": 10498, "name": "th3jackers"}], "onsite": false, "finish": "2024-10-20T10:00:00+00:00", "description": "", "weight": 24.5, "title": "Hack.lu CTF 2024", "url": "https://flu.xxx", "is_votable_now": false, "restrictions": "Open", "format": "Jeopardy", "start": "2024-10-18T10:00:00+00:00", "participants": 512, "ctftime_url": "https://ctftime.org/event/2467/", "location": "", "live_feed": "", "public_votable": false, "duration": {"hours": 0, "days": 2}, "logo": "", "format_id": 1, "id": 2467, "ctf_id": 25}`

type route struct {
	path  string
	query string
	body  string
	code  int
}

func newTestClient(t *testing.T, routes ...route) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DEFAULT_USER_AGENT, r.Header.Get("User-Agent"))
		for _, route := range routes {
			if r.URL.Path == route.path && r.URL.RawQuery == route.query {
				if route.code != 0 {
					w.WriteHeader(route.code)
				}
				w.Write([]byte(route.body))
				return
			}
		}
		t.Errorf("unexpected request %s", r.URL)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/v1/", "", time.Second)
}

func TestEvent(t *testing.T) {
	client := newTestClient(t, route{path: "/api/v1/events/2467/", body: eventJson})

	event, err := client.Event(context.Background(), 2467)
	require.NoError(t, err)
	assert.Equal(t, EventId(2467), event.Id)
	assert.Equal(t, "Hack.lu CTF 2024", event.Title)
	assert.Equal(t, "https://flu.xxx", event.Url)
	assert.True(t, event.Start.Equal(time.Date(2024, 10, 18, 10, 0, 0, 0, time.UTC)))
	assert.True(t, event.Finish.Equal(time.Date(2024, 10, 20, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, []Organizer{{Id: 10498, Name: "th3jackers"}}, event.Organizers)

	assert.True(t, event.Ongoing(time.Date(2024, 10, 19, 0, 0, 0, 0, time.UTC)))
	assert.False(t, event.Ongoing(time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC)))
}

func TestUpcomingEvents(t *testing.T) {
	client := newTestClient(t,
		route{path: "/api/v1/events/", query: "limit=5", body: "[" + eventJson + "]"},
		route{path: "/api/v1/events/", query: "limit=2", body: "[" + eventJson + "," + eventJson + "]"},
	)

	events, err := client.UpcomingEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = client.UpcomingEvents(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEventsBetween(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	finish := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, route{path: "/api/v1/events/", query: "finish=1730419200&limit=100&start=1727740800", body: "[]"})

	events, err := client.EventsBetween(context.Background(), 100, start, finish)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTeam(t *testing.T) {
	client := newTestClient(t, route{path: "/api/v1/teams/1/", body: `{"academic": false, "primary_alias": "0ops", "name": "0ops", "rating": {"2024": {"rating_place": 3, "organizer_points": 0, "rating_points": 1234.5, "country_place": 1}}, "logo": "", "country": "CN", "id": 1, "aliases": ["0ops"]}`})

	team, err := client.Team(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "0ops", team.Name)
	assert.Equal(t, "CN", team.Country)
	assert.Equal(t, Rating{RatingPlace: 3, RatingPoints: 1234.5, CountryPlace: 1}, team.Rating["2024"])
}

func TestTopTeams(t *testing.T) {
	client := newTestClient(t,
		route{path: "/api/v1/top/", query: "limit=10", body: `{"2024": [{"team_name": "Blue Water", "points": 1500.1, "team_id": 205897}, {"team_name": "kalmarunionen", "points": 1400.2, "team_id": 114856}]}`},
		route{path: "/api/v1/top/2019/", body: `{"2019": [{"team_name": "r3kapig", "points": 99.5, "team_id": 58979}]}`},
	)

	leaderboard, err := client.TopTeams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2024, leaderboard.Year)
	require.Len(t, leaderboard.Teams, 2)
	assert.Equal(t, RankedTeam{Id: 205897, Name: "Blue Water", Points: 1500.1, Place: 1}, leaderboard.Teams[0])
	assert.Equal(t, 2, leaderboard.Teams[1].Place)

	leaderboard, err = client.TopTeamsByYear(context.Background(), 2019)
	require.NoError(t, err)
	assert.Equal(t, 2019, leaderboard.Year)
	assert.Equal(t, "r3kapig", leaderboard.Teams[0].Name)
}

func TestTopTeamsByCountry(t *testing.T) {
	client := newTestClient(t, route{path: "/api/v1/top-by-country/pl/", body: `[{"country_place": 1, "team_id": 1, "points": 300.5, "team_country": "PL", "place": 7, "team_name": "p4", "events": 12}]`})

	teams, err := client.TopTeamsByCountry(context.Background(), "PL")
	require.NoError(t, err)
	assert.Equal(t, []RankedTeam{{Id: 1, Name: "p4", Points: 300.5, Place: 7, CountryPlace: 1, Country: "PL", Events: 12}}, teams)
}

func TestUnavailable(t *testing.T) {
	client := newTestClient(t,
		route{path: "/api/v1/events/1/", code: http.StatusInternalServerError},
		route{path: "/api/v1/events/2/", body: "<html>"},
		route{path: "/api/v1/top/1999/", body: "{}"},
		route{path: "/api/v1/events/3/", body: "{}"},
	)

	_, err := client.Event(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = client.Event(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = client.Event(context.Background(), 3)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = client.TopTeamsByYear(context.Background(), 1999)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.UpcomingEvents(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}
