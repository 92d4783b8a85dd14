package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wolfeidau/extbundle/internal/bundle"
)

// ValidateCmd checks the configuration, the filesystem and transform coverage.
type ValidateCmd struct {
	ConfigFlags `embed:""`

	SkipCoverage bool `help:"Skip the transform coverage traversal" env:"EXTBUNDLE_SKIP_COVERAGE"`

	out io.Writer
}

func (c *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := c.load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	if err := cfg.CheckFilesystem(); err != nil {
		return err
	}

	w := stdout(c.out)

	if !c.SkipCoverage {
		pipeline, err := bundle.New(cfg, bundle.Options{})
		if err != nil {
			return err
		}

		report, err := pipeline.Coverage(ctx)
		if report != nil {
			bundle.DisplayCoverage(w, report)
		}
		if err != nil {
			var uncovered *bundle.UncoveredError
			if errors.As(err, &uncovered) {
				return fmt.Errorf("%w\n\nAdd a module.rules entry for each uncovered extension", err)
			}
			return err
		}
	}

	fmt.Fprintf(w, "Configuration %s is valid\n", cfg.BaseDir())
	return nil
}
