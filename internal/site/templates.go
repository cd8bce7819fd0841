package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed all:templates
var templatesFS embed.FS

// DefaultTemplates returns the templates bundled with the binary.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer renders a named page with its data.
type Renderer interface {
	Render(w io.Writer, page string, data any) error
}

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the
// given filesystem. Every page under pages/ is parsed together with all
// layouts and partials.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// Pages returns the names of the loaded page templates.
func (t *Templates) Pages() []string {
	names := make([]string, 0, len(t.templates))
	for name := range t.templates {
		names = append(names, name)
	}
	return names
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}
	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}
	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// bytes formats a size as "4.2 MB"
		"bytes": func(n int64) string {
			if n <= 0 {
				return ""
			}
			return humanize.Bytes(uint64(n))
		},

		// duration formats a total playing time as "42:07" or "1:02:07"
		"duration": func(d time.Duration) string {
			if d <= 0 {
				return ""
			}
			secs := int(d.Round(time.Second) / time.Second)
			if secs >= 3600 {
				return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
			}
			return fmt.Sprintf("%d:%02d", secs/60, secs%60)
		},

		"join": strings.Join,

		"base": filepath.Base,

		// pathEscape escapes a file name for use in an href
		"pathEscape": func(parts ...string) string {
			escaped := make([]string, len(parts))
			for i, p := range parts {
				escaped[i] = url.PathEscape(p)
			}
			return strings.Join(escaped, "/")
		},
	}
}
