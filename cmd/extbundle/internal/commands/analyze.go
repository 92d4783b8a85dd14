package commands

import (
	"context"
	"io"

	"github.com/wolfeidau/extbundle/internal/bundle"
)

// AnalyzeCmd bundles in memory and prints the size breakdown.
type AnalyzeCmd struct {
	ConfigFlags `embed:""`
	BuildFlags  `embed:""`

	Details bool `help:"Show every input instead of the largest ten" short:"d"`

	out io.Writer
}

func (c *AnalyzeCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	pipeline, err := preparePipeline(c.ConfigFlags, c.BuildFlags, bundle.Options{})
	if err != nil {
		return err
	}

	report, err := pipeline.Analyze(ctx)
	if err != nil {
		return err
	}

	bundle.DisplayAnalysis(stdout(c.out), report, c.Details)
	return nil
}
