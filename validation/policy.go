package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PolicyVersion identifies the rule table below. Bump it whenever a rule is
// added, removed or changes meaning.
const PolicyVersion = 3

// Rule is one named signal that text is code, markup, data or an error
// stub rather than a written analysis.
type Rule struct {
	Name  string
	Match func(text, lower string) bool
}

func pattern(name, expr string) Rule {
	re := regexp.MustCompile(expr)
	return Rule{Name: name, Match: func(text, _ string) bool { return re.MatchString(text) }}
}

// Policy bundles the thresholds and vocabularies the validator applies.
type Policy struct {
	MinLength        int      // runes after whitespace collapsing
	MaxCodeDensity   int      // braces plus semicolons at which text counts as code
	RequiredSections []int    // numbered section markers that must all appear
	ProviderName     string   // provider name that, next to "error", marks an error echo
	Cues             []string // lower-case scenario or risk stems; at least one must appear
}

// DefaultPolicy is the policy used by the package-level helpers.
var DefaultPolicy = Policy{
	MinLength:        120,
	MaxCodeDensity:   14,
	RequiredSections: []int{1, 2, 3, 4, 5},
	ProviderName:     "openrouter",
	Cues:             []string{"scenari", "risc", "incertitudin", "volatil", "recomand", "selec"},
}

var structuralRules = []Rule{
	pattern("fenced_code", "(?s)```.*?```"),
	pattern("html_tag", `(?i)</?(html|head|body|script|style|div|span|pre|code)[\s>]`),
	pattern("php_tag", `(?i)<\?php`),
	pattern("import_export", `(?i)\b(import|export)\b\s+`),
	pattern("function_class", `(?i)\b(function|class)\b\s+[a-z0-9_]+\s*\(`),
	pattern("const_decl", `(?i)\bconst\b\s+[a-z0-9_]+\s*=`),
	pattern("let_decl", `(?i)\blet\b\s+[a-z0-9_]+\s*=`),
	pattern("var_decl", `(?i)\bvar\b\s+[a-z0-9_]+\s*=`),
	pattern("return_stmt", `(?i)\breturn\b\s+`),
	pattern("console_log", `(?i)\bconsole\.log\b`),
	pattern("sql_select", `(?i)\bSELECT\b\s+.*\bFROM\b`),
	pattern("json_object", `(?m)^\s*\{\s*"[^"]+"\s*:`),
	pattern("json_array", `(?m)^\s*\[\s*\{\s*"[^"]+"\s*:`),
	pattern("xml_prolog", `(?i)^\s*<\?xml\b`),
	pattern("markdown_heading", `(^|\n)\s*#{1,6}\s+`),
	pattern("markdown_bullet", `(^|\n)\s*[-•]\s+`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Rules returns the full ordered rule table for p: the structural patterns
// followed by the length, density and error-vocabulary rules.
func (p Policy) Rules() []Rule {
	rules := make([]Rule, 0, len(structuralRules)+4)
	rules = append(rules, structuralRules...)
	rules = append(rules,
		Rule{Name: "too_short", Match: func(text, _ string) bool {
			collapsed := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
			return utf8.RuneCountInString(collapsed) < p.MinLength
		}},
		Rule{Name: "code_density", Match: func(text, _ string) bool {
			braces := strings.Count(text, "{") + strings.Count(text, "}")
			return braces+strings.Count(text, ";") >= p.MaxCodeDensity
		}},
		Rule{Name: "provider_error", Match: func(_, lower string) bool {
			return p.ProviderName != "" && strings.Contains(lower, p.ProviderName) && strings.Contains(lower, "error")
		}},
		Rule{Name: "missing_key", Match: func(_, lower string) bool {
			return strings.Contains(lower, "missing") && strings.Contains(lower, "key")
		}},
	)
	return rules
}

// CodeOrMarkupRule returns the name of the first rule text trips, or "".
func (p Policy) CodeOrMarkupRule(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range p.Rules() {
		if rule.Match(text, lower) {
			return rule.Name
		}
	}
	return ""
}

const sectionExpr = `(?m)^[ \t]*%d[.)](?:\s|$)`

var sectionMarkers = func() map[int]*regexp.Regexp {
	markers := make(map[int]*regexp.Regexp, 9)
	for n := 1; n <= 9; n++ {
		markers[n] = regexp.MustCompile(fmt.Sprintf(sectionExpr, n))
	}
	return markers
}()

func sectionMarker(n int) *regexp.Regexp {
	if re, ok := sectionMarkers[n]; ok {
		return re
	}
	return regexp.MustCompile(fmt.Sprintf(sectionExpr, n))
}

// MissingSections lists the required section numbers with no marker at a
// line start, accepting both "N)" and "N." numbering.
func (p Policy) MissingSections(text string) []int {
	var missing []int
	for _, n := range p.RequiredSections {
		if !sectionMarker(n).MatchString(text) {
			missing = append(missing, n)
		}
	}
	return missing
}

// HasCue reports whether text mentions scenarios, risk or uncertainty.
func (p Policy) HasCue(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range p.Cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// closers may follow the final punctuation mark of a sentence.
const closers = "\"'”»)]"

// Terminated reports whether the last non-whitespace character, ignoring
// closing quotes and brackets, ends a sentence.
func Terminated(text string) bool {
	s := strings.TrimRight(strings.TrimSpace(text), closers)
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}
