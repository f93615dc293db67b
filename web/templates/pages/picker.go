package pages

import (
	"context"
	"io"
	"strings"

	"betlogic/fixtures"

	"github.com/a-h/templ"
)

// LeagueGroup is one league heading of the picker.
type LeagueGroup struct {
	League   string
	Fixtures []fixtures.Fixture
}

// GroupByLeague groups an already sorted fixture list, keeping its order.
func GroupByLeague(list []fixtures.Fixture) []LeagueGroup {
	var groups []LeagueGroup
	for _, fx := range list {
		if n := len(groups); n > 0 && groups[n-1].League == fx.League {
			groups[n-1].Fixtures = append(groups[n-1].Fixtures, fx)
			continue
		}
		groups = append(groups, LeagueGroup{League: fx.League, Fixtures: []fixtures.Fixture{fx}})
	}
	return groups
}

// MatchPicker lists fixtures with one "Analizează" form per match.
func MatchPicker(groups []LeagueGroup, notice string) templ.Component {
	return Layout("BetLogic · Meciurile zilei", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Meciurile zilei</h1>`)
		if err := writeNotice(&b, notice); err != nil {
			return err
		}
		if len(groups) == 0 && notice == "" {
			b.WriteString(`<p>Nu există meciuri programate azi.</p>`)
		}
		for _, g := range groups {
			b.WriteString(`<h2>` + templ.EscapeString(g.League) + `</h2><ul class="fixtures">`)
			for _, fx := range g.Fixtures {
				b.WriteString(`<li><span>` + templ.EscapeString(fx.TeamsLabel))
				b.WriteString(`<span class="status">` + templ.EscapeString(fx.MatchStatus))
				if !fx.Kickoff.IsZero() {
					b.WriteString(` · ` + fx.Kickoff.UTC().Format("15:04") + ` UTC`)
				}
				b.WriteString(`</span></span><form method="post" action="/view">`)
				hidden(&b, "teamsLabel", fx.TeamsLabel)
				hidden(&b, "league", fx.League)
				hidden(&b, "matchStatus", fx.MatchStatus)
				b.WriteString(`<button type="submit">Analizează</button></form></li>`)
			}
			b.WriteString(`</ul>`)
		}
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func hidden(b *strings.Builder, name, value string) {
	b.WriteString(`<input type="hidden" name="` + name + `" value="` + templ.EscapeString(value) + `">`)
}
