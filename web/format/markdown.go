package format

import (
	"regexp"
	"strings"
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```.*?```")
	backticks    = regexp.MustCompile("`+")
	headingMark  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	quoteMark    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	boldStars    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnder    = regexp.MustCompile(`__([^_]+)__`)
	italicStar   = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnder  = regexp.MustCompile(`_([^_]+)_`)
	bulletMark   = regexp.MustCompile(`(?m)^[ \t]*[-•][ \t]+`)
	markdownLink = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	refLink      = regexp.MustCompile(`\[([^\]]*)\]\[[^\]]*\]`)
	linkDef      = regexp.MustCompile(`(?m)^[ \t]{0,3}\[[^\]]+\]:[ \t]*\S.*$`)
	blankRun     = regexp.MustCompile(`\n{3,}`)
)

// Sanitize turns model output into plain text: fenced code is dropped
// with its content, emphasis and links are unwrapped, link reference definitions dropped, line-start heading,
// quote and bullet markers are removed, line endings normalized and blank
// runs collapsed. Passes repeat until nothing changes, so
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	s := raw
	// Each pass shortens s or replaces a carriage return, so this terminates.
	for {
		next := stripOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func stripOnce(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = fencedBlock.ReplaceAllString(s, "")
	s = backticks.ReplaceAllString(s, "")
	s = headingMark.ReplaceAllString(s, "")
	s = quoteMark.ReplaceAllString(s, "")
	s = boldStars.ReplaceAllString(s, "$1")
	s = boldUnder.ReplaceAllString(s, "$1")
	s = italicStar.ReplaceAllString(s, "$1")
	s = italicUnder.ReplaceAllString(s, "$1")
	s = bulletMark.ReplaceAllString(s, "")
	s = markdownLink.ReplaceAllString(s, "$1")
	s = linkDef.ReplaceAllString(s, "")
	s = refLink.ReplaceAllString(s, "$1")

	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
