package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/mood"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	partials  map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		partials:  make(map[string]*template.Template),
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

	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderPartial renders a partial template (without base layout) with the given data.
func (t *Templates) RenderPartial(w io.Writer, partial string, data any) error {
	tmpl, ok := t.partials[partial]
	if !ok {
		return fmt.Errorf("partial %q not found", partial)
	}
	return tmpl.Execute(w, data)
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

	// Common files to include with every page
	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	// Partials are also served alone as HTMX fragments
	for _, partial := range partials {
		name := strings.TrimSuffix(filepath.Base(partial), ".html")

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, partial)
		if err != nil {
			return fmt.Errorf("parsing partial %s: %w", name, err)
		}
		t.partials[name] = tmpl
	}

	return nil
}

// moodColors maps each label to its chip color.
var moodColors = map[emotion.Label]string{
	emotion.Sad:       "hsl(222, 45%, 42%)",
	emotion.Fearful:   "hsl(264, 40%, 45%)",
	emotion.Angry:     "hsl(4, 70%, 48%)",
	emotion.Disgusted: "hsl(90, 35%, 38%)",
	emotion.Neutral:   "hsl(200, 10%, 50%)",
	emotion.Surprised: "hsl(45, 90%, 50%)",
	emotion.Happy:     "hsl(28, 95%, 55%)",
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// moodColor returns the accent color for an emotion label.
		"moodColor": func(label string) template.CSS {
			c, ok := moodColors[emotion.Label(label)]
			if !ok {
				c = moodColors[emotion.Neutral]
			}
			return template.CSS(c) //nolint:gosec // fixed palette
		},

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	CurrentPath string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
	Emotions     []emotion.Label
	DefaultCount int
	MaxCount     int
	MaxUploadMB  int64
}

// ResultsData feeds the recommendations partial. Error replaces the list
// when set.
type ResultsData struct {
	Emotion         string
	Source          string
	Recommendations []mood.Recommendation
	Confidence      map[emotion.Label]int
	Error           string
}
