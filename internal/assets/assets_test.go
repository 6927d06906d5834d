package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

var testTemplates = fstest.MapFS{
	"layout.html": {Data: []byte(`<title>{{.Title}}</title>{{range .Scripts}}<script src="{{.}}"></script>{{end}}{{template "content" .}}`)},
	"hello.html":  {Data: []byte(`{{define "content"}}<p>{{.Context}}</p>{{end}}`)},
	"status.html": {Data: []byte(`{{define "content"}}<p>{{label .Context}}</p>{{end}}`)},
}

func TestNewWithTemplates(t *testing.T) {
	p, err := NewWithTemplates(DefaultConfig(), testTemplates, nil)
	require.NoError(t, err)

	require.True(t, p.HasPage("hello"))
	require.True(t, p.HasPage("status"))
	require.False(t, p.HasPage("layout"))
}

func TestNewWithTemplates_NoPages(t *testing.T) {
	_, err := NewWithTemplates(DefaultConfig(), fstest.MapFS{
		"layout.html": {Data: []byte(`{{template "content" .}}`)},
	}, nil)
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	p, err := NewWithTemplates(DefaultConfig(), testTemplates, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, "hello", Page{Title: "Hi", Context: "<b>world</b>"}))
	require.Equal(t, `<title>Hi</title><p>&lt;b&gt;world&lt;/b&gt;</p>`, buf.String())

	buf.Reset()
	require.NoError(t, p.Render(&buf, "status", Page{Title: "S", Context: "in_progress"}))
	require.Contains(t, buf.String(), "<p>in progress</p>")
}

func TestRender_UnknownPage(t *testing.T) {
	p, err := NewWithTemplates(DefaultConfig(), testTemplates, nil)
	require.NoError(t, err)

	require.Error(t, p.Render(&bytes.Buffer{}, "missing", Page{}))
}

func TestRender_WithoutBuildSkipsScripts(t *testing.T) {
	p, err := NewWithTemplates(DefaultConfig(), testTemplates, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, "hello", Page{Title: "Hi", Entry: "ui/pages/admin.ts"}))
	require.NotContains(t, buf.String(), "<script")
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ui", "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "pages", "admin.ts"),
		[]byte(`const el: HTMLElement | null = document.querySelector("#admin"); console.log(el);`), 0o600))
	t.Chdir(dir)

	p, err := NewWithTemplates(DefaultConfig(), testTemplates, nil)
	require.NoError(t, err)

	_, _, err = p.LoadScripts("ui/pages/admin.ts")
	require.ErrorIs(t, err, ErrNotBuilt)

	require.NoError(t, p.Build())
	require.FileExists(t, filepath.Join(dir, "public", "meta.json"))

	scripts, entry, err := p.LoadScripts("ui/pages/admin.ts")
	require.NoError(t, err)
	require.Equal(t, "/public/admin.js", entry)
	require.Equal(t, []string{entry}, scripts)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, "hello", Page{Title: "Admin", Entry: "ui/pages/admin.ts"}))
	require.Contains(t, buf.String(), `<script src="/public/admin.js"></script>`)

	_, _, err = p.LoadScripts("ui/pages/missing.ts")
	require.Error(t, err)
}

func TestBuild_NoEntryPoints(t *testing.T) {
	t.Chdir(t.TempDir())

	require.Error(t, New(DefaultConfig()).Build())
}
