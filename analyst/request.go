package analyst

import (
	apperrors "betlogic/errors"
	"betlogic/utils"
)

// Request identifies the fixture an analysis is generated for.
type Request struct {
	TeamsLabel  string `json:"teamsLabel"`
	League      string `json:"league"`
	MatchStatus string `json:"matchStatus"`
}

// Normalized returns a copy with every field trimmed, inner whitespace
// collapsed and NFC applied.
func (r Request) Normalized() Request {
	return Request{
		TeamsLabel:  utils.NormalizeField(r.TeamsLabel),
		League:      utils.NormalizeField(r.League),
		MatchStatus: utils.NormalizeField(r.MatchStatus),
	}
}

// Validate requires every field to be present.
func (r Request) Validate() error {
	switch {
	case r.TeamsLabel == "":
		return apperrors.WrapError(apperrors.ErrInvalidInput, "teamsLabel is required")
	case r.League == "":
		return apperrors.WrapError(apperrors.ErrInvalidInput, "league is required")
	case r.MatchStatus == "":
		return apperrors.WrapError(apperrors.ErrInvalidInput, "matchStatus is required")
	}
	return nil
}

// CacheKey is the deterministic cache identity of the request. Requests that
// differ only in incidental whitespace share a key.
func (r Request) CacheKey() string {
	n := r.Normalized()
	return n.TeamsLabel + "|" + n.League + "|" + n.MatchStatus
}
