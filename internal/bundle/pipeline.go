// Package bundle drives esbuild from a build configuration record: it maps
// the record onto esbuild options, applies transform rules and externals
// through plugins, and reports coverage, size and build metadata.
package bundle

import (
	"sync"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

// Options tunes a Pipeline beyond what the configuration record holds
type Options struct {
	// Path the esbuild metafile is written to, empty to skip
	MetafilePath string
}

// Pipeline manages the bundle build for one configuration record
type Pipeline struct {
	config    *buildconfig.Config
	opts      Options
	rules     []compiledRule
	externals []buildconfig.External
	metadata  *Metafile
	mu        sync.RWMutex
}

// CoverageReport describes what is reachable from the entry point
type CoverageReport struct {
	// Extensions reached, sorted
	Extensions []string
	// Externals are imports left to the host runtime
	Externals []string
	// Modules is the number of source files loaded
	Modules int
	// Native lists extensions loaded only by the bundler's own loaders,
	// without any rule matching them
	Native []string
	// Uncovered maps extensions no rule covers to the files that have them
	Uncovered map[string][]string
}

// New creates a pipeline for cfg. The configuration is validated and must not
// be modified while the pipeline is in use.
func New(cfg *buildconfig.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := compileRules(cfg.Module.Rules)
	if err != nil {
		return nil, err
	}

	externals, err := cfg.ExternalModules()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:    cfg,
		opts:      opts,
		rules:     rules,
		externals: externals,
	}, nil
}

// Config returns the record the pipeline builds.
func (p *Pipeline) Config() *buildconfig.Config {
	return p.config
}
