package prompts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Embedded prompt files

//go:embed ro_analyst.txt
var roAnalyst string

//go:embed ro_compact.txt
var roCompact string

//go:embed strict_addon.txt
var strictAddon string

//go:embed continuation.txt
var continuation string

// Unavailable is the exact reply the strict prompt asks for when the model
// cannot comply.
const Unavailable = "ANALIZA_INDISPONIBILA"

// Template is a prompt-template strategy for the analysis pipeline.
type Template interface {
	Name() string
	// Base renders the first-attempt prompt for one fixture.
	Base(teams, league, status string) (string, error)
	// Strict appends the stricter-format directive to a base prompt.
	Strict(base string) string
	// Continuation asks the model to finish partial from where it stopped.
	Continuation(base, partial string) string
	// Sentinel is the reply that means the model gave up under Strict.
	Sentinel() string
}

type textTemplate struct {
	name string
	base *template.Template
}

var (
	strictTmpl       = template.Must(template.New("strict").Parse(strictAddon))
	continuationTmpl = template.Must(template.New("continuation").Parse(continuation))

	registry = map[string]Template{
		"ro-analyst": newTextTemplate("ro-analyst", roAnalyst),
		"ro-compact": newTextTemplate("ro-compact", roCompact),
	}
)

func newTextTemplate(name, text string) *textTemplate {
	return &textTemplate{name: name, base: template.Must(template.New(name).Parse(strings.TrimSpace(text)))}
}

// Lookup returns the registered template with the given name.
func Lookup(name string) (Template, error) {
	tmpl, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown prompt template %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return tmpl, nil
}

// Names lists the registered template names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *textTemplate) Name() string { return t.name }

func (t *textTemplate) Base(teams, league, status string) (string, error) {
	var b strings.Builder
	err := t.base.Execute(&b, struct{ Teams, League, Status string }{teams, league, status})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.name, err)
	}
	return b.String(), nil
}

func (t *textTemplate) Strict(base string) string {
	return base + render(strictTmpl, struct{ Sentinel string }{Unavailable})
}

func (t *textTemplate) Continuation(base, partial string) string {
	return base + render(continuationTmpl, struct{ Partial string }{partial})
}

func (t *textTemplate) Sentinel() string { return Unavailable }

// render executes an embedded template whose fields are plain strings, which
// cannot fail once parsing succeeded.
func render(tmpl *template.Template, data any) string {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("render %s: %v", tmpl.Name(), err))
	}
	return strings.TrimRight(b.String(), "\n")
}
