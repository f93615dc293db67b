package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	apperrors "betlogic/errors"
	"betlogic/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const dateLayout = "2006-01-02"

// Fixture is one scheduled or live match.
type Fixture struct {
	ID          int       `json:"id"`
	TeamsLabel  string    `json:"teamsLabel"`
	League      string    `json:"league"`
	Country     string    `json:"country,omitempty"`
	MatchStatus string    `json:"matchStatus"`
	Kickoff     time.Time `json:"kickoff"`
}

// Config holds the API-Sports connection settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Client lists fixtures from the API-Sports football API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithClock sets the clock that decides which day is "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLimiter replaces the outbound pacing limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// New builds a Client. A zero MinInterval disables pacing.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://v3.football.api-sports.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

type apiResponse struct {
	Errors   json.RawMessage `json:"errors"`
	Response []apiFixture   `json:"response"`
}

type apiFixture struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
}

// Today lists fixtures for the current UTC date.
func (c *Client) Today(ctx context.Context) ([]Fixture, error) {
	return c.ForDate(ctx, c.now().UTC())
}

// ForDate lists fixtures for the calendar date of day, sorted by league and
// kickoff.
func (c *Client) ForDate(ctx context.Context, day time.Time) ([]Fixture, error) {
	if !c.Configured() {
		return nil, apperrors.WrapError(apperrors.ErrConfiguration, "missing APISPORTS_KEY")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fixtures: rate limiter: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/fixtures?" + url.Values{"date": {day.Format(dateLayout)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fixtures: create request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrUpstreamTransient, fmt.Sprintf("fixtures: request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("fixtures: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.WrapErrorf(apperrors.ErrUpstreamFatal, "fixtures: API-Sports returned %d: %s",
			resp.StatusCode, utils.TruncateForLog(string(body), 300))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("fixtures: decode response: %w", err)
	}
	if hasErrors(parsed.Errors) {
		return nil, apperrors.WrapErrorf(apperrors.ErrUpstreamFatal, "fixtures: API-Sports reported errors: %s",
			utils.TruncateForLog(string(parsed.Errors), 300))
	}

	list := make([]Fixture, 0, len(parsed.Response))
	for _, fx := range parsed.Response {
		list = append(list, c.toFixture(fx))
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].League != list[j].League {
			return list[i].League < list[j].League
		}
		return list[i].Kickoff.Before(list[j].Kickoff)
	})
	c.logger.Debug("Fetched fixtures", zap.String("date", day.Format(dateLayout)), zap.Int("count", len(list)))
	return list, nil
}

func (c *Client) toFixture(fx apiFixture) Fixture {
	kickoff, err := time.Parse(time.RFC3339, fx.Fixture.Date)
	if err != nil && fx.Fixture.Date != "" {
		c.logger.Debug("Unparseable fixture date", zap.Int("fixture_id", fx.Fixture.ID), zap.String("date", fx.Fixture.Date))
	}
	return Fixture{
		ID:          fx.Fixture.ID,
		TeamsLabel:  fmt.Sprintf("%s vs %s", fx.Teams.Home.Name, fx.Teams.Away.Name),
		League:      fx.League.Name,
		Country:     fx.League.Country,
		MatchStatus: fx.Fixture.Status.Short,
		Kickoff:     kickoff,
	}
}

// hasErrors reports whether the API-Sports "errors" field, which is an empty
// array on success and an object otherwise, carries anything.
func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "[]" && s != "{}" && s != "null"
}
