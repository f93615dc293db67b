package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const styles = `<style>
body{font-family:system-ui,sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem;color:#1d232a}
h1{font-size:1.4rem}h2{font-size:1.05rem;margin-top:1.6rem;border-bottom:1px solid #dde1e6}
ul.fixtures{list-style:none;padding:0}ul.fixtures li{display:flex;justify-content:space-between;align-items:center;padding:.35rem 0}
.status{font-size:.8rem;color:#5b6570;margin-left:.5rem}.notice{background:#fff4e5;padding:.6rem .8rem;border-radius:4px}
button{cursor:pointer}.analysis p{line-height:1.5}
</style>`

// Layout wraps body in the shared page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="ro"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`+
			templ.EscapeString(title)+`</title>`+styles+`</head><body>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func writeNotice(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	_, err := io.WriteString(w, `<p class="notice">`+templ.EscapeString(text)+`</p>`)
	return err
}
