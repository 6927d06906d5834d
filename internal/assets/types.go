package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
	"time"
)

// LayoutTemplate is the file every page is rendered inside.
const LayoutTemplate = "layout.html"

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
}

// Pipeline bundles the browser scripts and renders the server side pages.
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	pages    map[string]*template.Template
	mu       sync.RWMutex
}

// New creates a pipeline without templates, used when only Build is needed.
func New(config Config) *Pipeline {
	return &Pipeline{
		config: config,
		pages:  map[string]*template.Template{},
	}
}

// NewWithTemplates creates a pipeline and parses the pages in fsys. Each
// *.html file other than LayoutTemplate becomes a page named after the file
// without its extension, and is parsed together with the layout so pages can
// define their own "content" block.
func NewWithTemplates(config Config, fsys fs.FS, customFuncs template.FuncMap) (*Pipeline, error) {
	p := New(config)

	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"label": func(v any) string {
			return strings.ReplaceAll(fmt.Sprint(v), "_", " ")
		},
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file == LayoutTemplate {
			continue
		}

		tmpl, err := template.New(LayoutTemplate).Funcs(funcs).ParseFS(fsys, LayoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", file, err)
		}
		p.pages[strings.TrimSuffix(path.Base(file), ".html")] = tmpl
	}

	if len(p.pages) == 0 {
		return nil, errors.New("no page templates found")
	}

	return p, nil
}

// HasPage reports whether a page template called name was loaded.
func (p *Pipeline) HasPage(name string) bool {
	_, ok := p.pages[name]
	return ok
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
