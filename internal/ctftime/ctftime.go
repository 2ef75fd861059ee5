package ctftime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ctftimebot/internal/common"

	"github.com/rs/zerolog"
)

// Base url of the public API
const CTFTIME_API = "https://ctftime.org/api/v1"

// Routes inside the API
const ROUTE_TEAM = "/teams/%d/"
const ROUTE_EVENTS = "/events/"
const ROUTE_EVENT = "/events/%d/"
const ROUTE_TOP = "/top/"
const ROUTE_TOP_YEAR = "/top/%d/"
const ROUTE_TOP_COUNTRY = "/top-by-country/%s/"

// Number of events requested when no limit is provided
const DEFAULT_LIMIT = 5

// Number of teams in the global leaderboard
const TOP_LIMIT = 10

const DEFAULT_USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Any failure talking to CTFTime: transport, timeout, status or payload
var ErrUnavailable = errors.New("ctftime directory unavailable")

// Read only client of the CTFTime API. Every call is a single request,
// nothing is cached and nothing is retried
type Client struct {
	baseUrl string
	proxy   common.Proxy
}

func NewClient(baseUrl string, userAgent string, timeout time.Duration) *Client {
	if baseUrl == "" {
		baseUrl = CTFTIME_API
	}
	if userAgent == "" {
		userAgent = DEFAULT_USER_AGENT
	}
	header := map[string]string{
		"Accept":     "application/json",
		"User-Agent": userAgent,
	}
	return &Client{strings.TrimRight(baseUrl, "/"), common.NewProxy(header, timeout)}
}

func (client *Client) Team(ctx context.Context, id TeamId) (Team, error) {

	data, err := client.request(ctx, fmt.Sprintf(ROUTE_TEAM, id), nil)
	if err != nil {
		return Team{}, err
	}
	team, err := UnmarshalTeam(data)
	if err != nil {
		return Team{}, unavailable(err)
	}
	return team, nil
}

// Events that start between the two provided times
func (client *Client) EventsBetween(ctx context.Context, limit int, start time.Time, finish time.Time) ([]Event, error) {

	query := url.Values{}
	query.Set("limit", fmt.Sprint(limitOrDefault(limit)))
	query.Set("start", fmt.Sprint(start.Unix()))
	query.Set("finish", fmt.Sprint(finish.Unix()))
	return client.events(ctx, query)
}

func (client *Client) UpcomingEvents(ctx context.Context, limit int) ([]Event, error) {

	query := url.Values{}
	query.Set("limit", fmt.Sprint(limitOrDefault(limit)))
	return client.events(ctx, query)
}

func (client *Client) Event(ctx context.Context, id EventId) (Event, error) {

	data, err := client.request(ctx, fmt.Sprintf(ROUTE_EVENT, id), nil)
	if err != nil {
		return Event{}, err
	}
	event, err := UnmarshalEvent(data)
	if err != nil {
		return Event{}, unavailable(err)
	}
	return event, nil
}

// Global leaderboard of the current year
func (client *Client) TopTeams(ctx context.Context) (Leaderboard, error) {

	query := url.Values{}
	query.Set("limit", fmt.Sprint(TOP_LIMIT))
	return client.leaderboard(ctx, ROUTE_TOP, query)
}

func (client *Client) TopTeamsByYear(ctx context.Context, year int) (Leaderboard, error) {
	return client.leaderboard(ctx, fmt.Sprintf(ROUTE_TOP_YEAR, year), nil)
}

func (client *Client) TopTeamsByCountry(ctx context.Context, countryCode string) ([]RankedTeam, error) {

	route := fmt.Sprintf(ROUTE_TOP_COUNTRY, url.PathEscape(strings.ToLower(countryCode)))
	data, err := client.request(ctx, route, nil)
	if err != nil {
		return nil, err
	}
	teams, err := UnmarshalCountryTeams(data)
	if err != nil {
		return nil, unavailable(err)
	}
	return teams, nil
}

func (client *Client) events(ctx context.Context, query url.Values) ([]Event, error) {

	data, err := client.request(ctx, ROUTE_EVENTS, query)
	if err != nil {
		return nil, err
	}
	events, err := UnmarshalEvents(data)
	if err != nil {
		return nil, unavailable(err)
	}
	return events, nil
}

func (client *Client) leaderboard(ctx context.Context, route string, query url.Values) (Leaderboard, error) {

	data, err := client.request(ctx, route, query)
	if err != nil {
		return Leaderboard{}, err
	}
	leaderboards, err := UnmarshalLeaderboards(data)
	if err != nil {
		return Leaderboard{}, unavailable(err)
	}
	if len(leaderboards) == 0 {
		return Leaderboard{}, unavailable(fmt.Errorf("no leaderboard in response"))
	}
	return leaderboards[0], nil
}

func (client *Client) request(ctx context.Context, route string, query url.Values) ([]byte, error) {

	u := client.baseUrl + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	data, err := client.proxy.Request(ctx, u)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("CTFTime request failed")
		return nil, unavailable(err)
	}
	return data, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DEFAULT_LIMIT
	}
	return limit
}
