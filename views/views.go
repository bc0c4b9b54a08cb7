// Package views provides the default templ components for a pubform site.
// Sites wanting their own markup can supply any templ.Component functions
// in pubform.ViewFuncs instead.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubform"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

// Default returns the built-in views.
func Default() pubform.ViewFuncs {
	return pubform.ViewFuncs{
		FormPage:    FormPage,
		FormPartial: FormPartial,
		Feedback:    Feedback,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

// FormPage renders the full HTML document around the form.
func FormPage(v pubform.FormView) templ.Component {
	return component("page", v)
}

// FormPartial renders only the form section, for HTMX swaps.
func FormPartial(v pubform.FormView) templ.Component {
	return component("form", v)
}

// Feedback renders the success/failure banner.
func Feedback(v pubform.FormView) templ.Component {
	return component("feedback", v)
}

func NotFound() templ.Component {
	return component("not_found", nil)
}

func ServerError() templ.Component {
	return component("server_error", nil)
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}
