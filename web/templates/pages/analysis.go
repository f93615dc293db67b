package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// AnalysisData is what the analysis page shows. HTML is trusted output of
// format.AnalysisToHTML.
type AnalysisData struct {
	Teams  string
	League string
	Status string
	HTML   string
	Error  string
}

// Analysis renders one generated analysis, or the reason there is none.
func Analysis(data AnalysisData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<p><a href="/">&larr; Înapoi la meciuri</a></p><h1>`+
			templ.EscapeString(data.Teams)+`</h1><p class="status">`+
			templ.EscapeString(data.League)+` · `+templ.EscapeString(data.Status)+`</p>`); err != nil {
			return err
		}
		if err := writeNotice(w, data.Error); err != nil {
			return err
		}
		if data.HTML == "" {
			return nil
		}
		if _, err := io.WriteString(w, `<div class="analysis">`); err != nil {
			return err
		}
		if err := templ.Raw(data.HTML).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
	return Layout("BetLogic · "+data.Teams, body)
}
