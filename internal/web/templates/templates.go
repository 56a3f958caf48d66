// Package templates renders the site's HTML views.
//
// Pages are html/template files embedded in the binary. Each page defines a
// "content" block that is rendered inside layout.html. Fragments that
// handlers also render on their own (upload list, notifications, error
// alert) are templ components in components.templ; pages pull them in
// through the uploadList and notifications template funcs.
package templates

//go:generate templ generate

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/site"
)

//go:embed html
var files embed.FS

// Page is the data every full page receives.
type Page struct {
	Title    string
	Nav      string // active navigation entry
	Business site.Business
	Notice   string           // one-off success message
	Errors   site.FieldErrors // form field errors
	Form     any              // submitted form values, echoed back on error
	Data     any
}

// Views holds the parsed page templates.
type Views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"size": fileSize,
	"join": strings.Join,
	"uploadList": func(uploads []core.TrackedUpload) (template.HTML, error) {
		return templ.ToGoHTML(context.Background(), UploadList(uploads))
	},
	"notifications": func(items []core.Notification) (template.HTML, error) {
		return templ.ToGoHTML(context.Background(), Notifications(items))
	},
}

// Load parses the embedded templates.
func Load() (*Views, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "html/layout.html", "html/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "html/pages/*.html")
	if err != nil {
		return nil, err
	}

	v := &Views{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return v, nil
}

// Page renders a full page by name (the file name without extension).
func (v *Views) Page(name string, p Page) templ.Component {
	t, ok := v.pages[name]
	if !ok {
		return missing("page", name)
	}
	return templ.FromGoHTML(t, p)
}

// Has reports whether a page exists.
func (v *Views) Has(name string) bool {
	_, ok := v.pages[name]
	return ok
}

func missing(kind, name string) templ.Component {
	return templ.ComponentFunc(func(context.Context, io.Writer) error {
		return fmt.Errorf("templates: unknown %s %q", kind, name)
	})
}

func fileSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func progressWidth(percent int) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("width: %d%%;", percent))
}

func statusClass(s core.Status) string {
	switch s {
	case core.StatusUploading:
		return "badge-blue"
	case core.StatusUploadSuccessful:
		return "badge-green"
	case core.StatusProcessing:
		return "badge-yellow"
	case core.StatusReadyForReview:
		return "badge-purple"
	}
	return "badge-gray"
}
