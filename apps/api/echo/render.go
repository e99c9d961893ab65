package echoapi

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	appfs "github.com/trezcool/registrar/fs"
)

const (
	pagesDir       = "templates/pages"
	layoutTemplate = "_layout.gohtml"
	nonFieldErrors = "__all__"
)

type (
	templateRenderer struct {
		pages map[string]*template.Template
	}

	// page is the data every page template is executed with.
	page struct {
		Title    string
		Messages []flash
		Session  *Claims
		Data     interface{}
	}

	// form holds the submitted values of a form and its errors, keyed by field name.
	form struct {
		Values interface{}
		Errors map[string]string
	}
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(core.DateLayout)
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"pct": func(f float64) string {
		return fmt.Sprintf("%.2f", f)
	},
}

// newTemplateRenderer parses each page under templates/pages together with the layout and the partials
// (files prefixed with "_").
func newTemplateRenderer(strict bool) (*templateRenderer, error) {
	paths, err := fs.Glob(appfs.FS, path.Join(pagesDir, "*.gohtml"))
	if err != nil {
		return nil, err
	}

	r := &templateRenderer{pages: make(map[string]*template.Template, len(paths))}
	for _, p := range paths {
		base := path.Base(p)
		if strings.HasPrefix(base, "_") {
			continue
		}
		tmpl := template.New(layoutTemplate).Funcs(templateFuncs)
		if strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		if tmpl, err = tmpl.ParseFS(appfs.FS, path.Join(pagesDir, "_*.gohtml"), p); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", p)
		}
		r.pages[strings.TrimSuffix(base, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, layoutTemplate, data)
}

func render(ctx echo.Context, code int, name, title string, data interface{}) error {
	return ctx.Render(code, name, page{
		Title:    title,
		Messages: popMessages(ctx),
		Session:  getContextClaims(ctx),
		Data:     data,
	})
}

func (f form) Error(field string) string {
	return f.Errors[field]
}

func (f form) NonFieldError() string {
	return f.Errors[nonFieldErrors]
}
