package format

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var (
	sectionLine  = regexp.MustCompile(`^[0-9][.)]\s`)
	scenarioLine = regexp.MustCompile(`^[A-Z][.)]\s`)
)

// AnalysisToHTML renders a sanitized analysis as HTML for the match picker
// page. Raw HTML in the text is dropped and links are only emitted for
// safe schemes.
func AnalysisToHTML(text string) string {
	md := []byte(normalizeSectionBreaks(text))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.Safelink,
	})
	return string(markdown.ToHTML(md, p, renderer))
}

// normalizeSectionBreaks makes every numbered section start its own
// paragraph and keeps scenario lines ("A) ...") as separate lines. Section
// markers are escaped so "1." is not turned into an ordered list restarting
// at one for every section.
func normalizeSectionBreaks(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if sectionLine.MatchString(trimmed) || scenarioLine.MatchString(trimmed) {
			if i > 0 && strings.TrimSpace(lines[i-1]) != "" && sectionLine.MatchString(trimmed) && isHeading(trimmed) {
				result = append(result, "")
			}
			trimmed = trimmed[:1] + `\` + trimmed[1:]
			result = append(result, trimmed)
			continue
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// isHeading reports whether a numbered line is a section title such as
// "2) DINAMICA TACTICĂ:" rather than a numbered point inside a section.
func isHeading(line string) bool {
	title := strings.TrimSpace(line[2:])
	return strings.HasSuffix(title, ":") && strings.ToUpper(title) == title
}
