package analyst

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"betlogic/web/format"
)

const (
	minOverlap = 12
	maxOverlap = 400
)

var leadingSection = regexp.MustCompile(`^[0-9][.)]\s`)

// mergeContinuation joins the partial analysis with the model's continuation
// of it. An echoed tail of partial is dropped from the continuation, and a
// continuation that restarts from the first line replaces partial instead of
// repeating it.
func mergeContinuation(partial, cont string) string {
	partial = strings.TrimRight(partial, " \t\n")
	cont = strings.TrimSpace(cont)
	if cont == "" {
		return partial
	}
	if partial == "" || firstLine(cont) == firstLine(partial) {
		return cont
	}

	cont = trimOverlap(partial, cont)
	if cont == "" {
		return partial
	}

	sep := " "
	switch {
	case leadingSection.MatchString(cont):
		sep = "\n\n"
	case strings.ContainsAny(partial[len(partial)-1:], ".!?:"):
		sep = "\n"
	}
	return format.Sanitize(partial + sep + cont)
}

// trimOverlap removes the longest prefix of cont that repeats the end of
// partial. Overlaps shorter than minOverlap are kept; they are more likely a
// shared word than an echo.
func trimOverlap(partial, cont string) string {
	limit := min(len(partial), len(cont), maxOverlap)
	for k := limit; k >= minOverlap; k-- {
		if k < len(cont) && !utf8.RuneStart(cont[k]) {
			continue
		}
		if strings.HasSuffix(partial, cont[:k]) {
			return strings.TrimLeft(cont[k:], " \t\n")
		}
	}
	return cont
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
