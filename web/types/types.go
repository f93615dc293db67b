package types

import "betlogic/fixtures"

// AnalyzeRequest is the POST /analyze body. The Romanian field names are the
// ones the original WordPress widget sends and are used when the English
// ones are absent.
type AnalyzeRequest struct {
	TeamsLabel  string `json:"teamsLabel" form:"teamsLabel"`
	League      string `json:"league" form:"league"`
	MatchStatus string `json:"matchStatus" form:"matchStatus"`

	Echipe string `json:"echipe"`
	Liga   string `json:"liga"`
	Status string `json:"status"`
}

// Fields returns teams, league and status, falling back to the legacy names.
func (r AnalyzeRequest) Fields() (teams, league, status string) {
	return firstNonEmpty(r.TeamsLabel, r.Echipe), firstNonEmpty(r.League, r.Liga), firstNonEmpty(r.MatchStatus, r.Status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AnalyzeResponse is the success body of POST /analyze.
type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
	// RetryAfter is set in seconds on 429 responses.
	RetryAfter int `json:"retry_after,omitempty"`
}

// FixturesResponse is the body of GET /fixtures.
type FixturesResponse struct {
	Fixtures []fixtures.Fixture `json:"fixtures"`
	Error    string             `json:"error,omitempty"`
}

// LegacyFixture is one entry of GET /api/meciuri.
type LegacyFixture struct {
	Echipe string `json:"echipe"`
	Liga   string `json:"liga"`
	Status string `json:"status"`
}

// LegacyFixturesResponse is the body of GET /api/meciuri.
type LegacyFixturesResponse struct {
	Meciuri []LegacyFixture `json:"meciuri"`
	Error   string          `json:"error,omitempty"`
}

// ToLegacy maps fixtures to the Romanian field names.
func ToLegacy(list []fixtures.Fixture) []LegacyFixture {
	out := make([]LegacyFixture, 0, len(list))
	for _, fx := range list {
		out = append(out, LegacyFixture{Echipe: fx.TeamsLabel, Liga: fx.League, Status: fx.MatchStatus})
	}
	return out
}
