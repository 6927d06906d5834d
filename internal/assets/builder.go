package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// ErrNotBuilt is returned by LoadScripts before Build has succeeded.
var ErrNotBuilt = errors.New("assets not built yet, call Build() first")

// Build runs esbuild with the configured settings and loads metadata
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entryPoints, err := filepath.Glob(p.config.EntryPointGlob)
	if err != nil {
		return err
	}

	if len(entryPoints) == 0 {
		return errors.New("no entry points found")
	}

	log.Info().Strs("entrypoints", entryPoints).Msg("Building assets")

	result := api.Build(api.BuildOptions{
		EntryPoints:       entryPoints,
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		Outdir:            p.config.OutputDir,
		Format:            api.FormatESModule,
		Target:            api.ES2020,
		MinifyWhitespace:  p.config.Minify,
		MinifyIdentifiers: p.config.Minify,
		MinifySyntax:      p.config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
	})

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return errors.New("esbuild failed with errors")
	}

	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
	}

	// Write metafile
	if err := os.WriteFile(p.config.MetafilePath, []byte(result.Metafile), 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return err
	}

	p.metadata = &metadata
	return nil
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts := []string{}
	visited := make(map[string]bool)
	var entrypoint string

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath {
			entrypoint = "/" + outputPath
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, entrypoint, nil
		}
	}

	return nil, "", fmt.Errorf("entrypoint %s not found in metadata", entryPointPath)
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, "/"+imp.Path)

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// Page is the data handed to a page template.
type Page struct {
	Title string
	// Entry is the esbuild entry point whose scripts the page loads, if any.
	Entry   string
	Scripts []string
	// Context is the page specific data.
	Context any
}

// Render executes the named page into w. The page is rendered to a buffer
// first so a template error never leaves a half written response.
func (p *Pipeline) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("page %q not found", name)
	}

	if page.Entry != "" {
		scripts, _, err := p.LoadScripts(page.Entry)
		switch {
		case errors.Is(err, ErrNotBuilt):
			log.Debug().Str("page", name).Msg("Rendering without scripts, assets not built")
		case err != nil:
			return err
		default:
			page.Scripts = scripts
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, LayoutTemplate, page); err != nil {
		return fmt.Errorf("failed to render page %q: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
