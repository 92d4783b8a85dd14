package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
	"github.com/wolfeidau/extbundle/internal/bundle"
	"github.com/wolfeidau/extbundle/internal/manifest"
)

// BuildFlags override the configuration record for a single invocation
type BuildFlags struct {
	Mode     string `help:"Override the configured mode (development or production)" env:"EXTBUNDLE_MODE"`
	Minimize string `help:"Override minification" enum:"auto,true,false" default:"auto" env:"EXTBUNDLE_MINIMIZE"`
}

// apply writes the overrides into cfg before the pipeline is created
func (f BuildFlags) apply(cfg *buildconfig.Config) {
	if f.Mode != "" {
		cfg.Mode = buildconfig.Mode(f.Mode)
	}
	switch f.Minimize {
	case "true":
		cfg.Optimization.Minimize = buildconfig.Bool(true)
	case "false":
		cfg.Optimization.Minimize = buildconfig.Bool(false)
	}
}

// BuildCmd validates the configuration and bundles the extension.
type BuildCmd struct {
	ConfigFlags `embed:""`
	BuildFlags  `embed:""`

	Metafile string `help:"Write the esbuild metafile to this path" type:"path" env:"EXTBUNDLE_METAFILE"`
	Manifest bool   `help:"Write manifest.json with checksums next to the bundle" env:"EXTBUNDLE_MANIFEST"`
	Compress bool   `help:"Archive every output as zstd (implies --manifest)" env:"EXTBUNDLE_COMPRESS"`
	Analyze  bool   `help:"Print the size breakdown after building"`
	Details  bool   `help:"Include per-input details in the analysis"`

	out io.Writer
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	pipeline, err := preparePipeline(c.ConfigFlags, c.BuildFlags, bundle.Options{MetafilePath: c.Metafile})
	if err != nil {
		return err
	}
	cfg := pipeline.Config()

	res, err := pipeline.Build(ctx)
	if err != nil {
		return err
	}

	w := stdout(c.out)
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "Built %s (%d bytes, %d modules) in %s\n",
		relPath(cfg.ContextDir(), res.Bundle), res.BundleBytes(), res.Modules, res.Duration.Round(time.Millisecond))

	if c.Manifest || c.Compress {
		paths := make([]string, 0, len(res.Outputs))
		for _, out := range res.Outputs {
			paths = append(paths, out.Path)
		}
		m, err := manifest.Create(ctx, cfg, paths, manifest.Options{Compress: c.Compress})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Manifest %s (build %s)\n",
			relPath(cfg.ContextDir(), filepath.Join(cfg.OutputDir(), manifest.FileName)), m.BuildID)
	}

	if c.Analyze {
		report := bundle.Analyze(res.Metafile, cfg.ContextDir())
		bundle.DisplayAnalysis(w, report, c.Details)
	}

	return nil
}

// preparePipeline loads the configuration, applies overrides and runs every
// check that must pass before esbuild is invoked
func preparePipeline(cf ConfigFlags, bf BuildFlags, opts bundle.Options) (*bundle.Pipeline, error) {
	cfg, err := cf.load()
	if err != nil {
		return nil, err
	}
	bf.apply(cfg)

	pipeline, err := bundle.New(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	if err := cfg.CheckFilesystem(); err != nil {
		return nil, err
	}

	eff := cfg.Effective()
	log.Debug().
		Str("mode", string(eff.Mode)).
		Str("devtool", string(eff.Devtool)).
		Bool("minimize", eff.Minimize).
		Str("entry", cfg.EntryFile()).
		Str("output", cfg.OutputFile()).
		Msg("Prepared build")

	return pipeline, nil
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
