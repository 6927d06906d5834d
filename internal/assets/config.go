package assets

type Config struct {
	// Entry point glob pattern (e.g., "ui/pages/*.ts")
	EntryPointGlob string
	// Output directory for built files, served under /public/
	OutputDir string
	// Path to metafile
	MetafilePath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
}

// DefaultConfig returns the configuration used by the portal server.
func DefaultConfig() Config {
	return Config{
		EntryPointGlob: "ui/pages/*.ts",
		OutputDir:      "public",
		MetafilePath:   "public/meta.json",
		Minify:         true,
		SourceMap:      true,
	}
}

// DevConfig keeps output readable for local development.
func DevConfig() Config {
	cfg := DefaultConfig()
	cfg.Minify = false
	return cfg
}
