package validation

import "strings"

// Reason names the first problem a Verdict found.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonEmpty           Reason = "empty"
	ReasonCodeOrMarkup    Reason = "code_or_markup"
	ReasonNoCue           Reason = "no_cue"
	ReasonMissingSections Reason = "missing_sections"
	ReasonUnterminated    Reason = "unterminated"
)

// Verdict is the per-rule breakdown of one validation.
type Verdict struct {
	Empty           bool
	CodeRule        string // first tripped code/markup rule, "" when clean
	MissingSections []int
	HasCue          bool
	Terminated      bool
}

// Valid is true for a clean text with every required section and a cue.
func (v Verdict) Valid() bool {
	return !v.Empty && v.CodeRule == "" && len(v.MissingSections) == 0 && v.HasCue
}

// Complete is Valid plus a final sentence terminator.
func (v Verdict) Complete() bool {
	return v.Valid() && v.Terminated
}

// Salvageable is true when the text reads as the start of a real analysis
// that stopped early: clean, with a cue and section 1, but with later
// sections missing or the last sentence cut. A continuation can finish it;
// a stricter prompt is not needed.
func (v Verdict) Salvageable() bool {
	if v.Empty || v.CodeRule != "" || !v.HasCue {
		return false
	}
	for _, n := range v.MissingSections {
		if n == 1 {
			return false
		}
	}
	return true
}

func (v Verdict) Reason() Reason {
	switch {
	case v.Empty:
		return ReasonEmpty
	case v.CodeRule != "":
		return ReasonCodeOrMarkup
	case !v.HasCue:
		return ReasonNoCue
	case len(v.MissingSections) > 0:
		return ReasonMissingSections
	case !v.Terminated:
		return ReasonUnterminated
	}
	return ReasonOK
}

// Check evaluates text against every rule of p.
func (p Policy) Check(text string) Verdict {
	s := strings.TrimSpace(text)
	if s == "" {
		return Verdict{Empty: true, MissingSections: append([]int(nil), p.RequiredSections...)}
	}
	return Verdict{
		CodeRule:        p.CodeOrMarkupRule(s),
		MissingSections: p.MissingSections(s),
		HasCue:          p.HasCue(s),
		Terminated:      Terminated(s),
	}
}

// LooksLikeCodeOrMarkup reports whether text trips any code, markup, data,
// length or error-vocabulary rule of the default policy.
func LooksLikeCodeOrMarkup(text string) bool {
	return DefaultPolicy.CodeOrMarkupRule(text) != ""
}

// IsValidAnalysis reports whether text is a clean analysis with sections 1
// to 5 and a scenario or risk cue.
func IsValidAnalysis(text string) bool {
	return DefaultPolicy.Check(text).Valid()
}

// IsComplete reports whether text is a valid analysis whose last sentence
// is terminated.
func IsComplete(text string) bool {
	return DefaultPolicy.Check(text).Complete()
}
