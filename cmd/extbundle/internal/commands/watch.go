package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/extbundle/internal/bundle"
)

// WatchCmd builds the bundle and rebuilds whenever an input changes.
type WatchCmd struct {
	ConfigFlags `embed:""`
	BuildFlags  `embed:""`

	out io.Writer
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := preparePipeline(c.ConfigFlags, c.BuildFlags, bundle.Options{})
	if err != nil {
		return err
	}

	w := stdout(c.out)
	base := pipeline.Config().ContextDir()

	return pipeline.Watch(ctx, func(res *bundle.Result, err error) {
		if err != nil {
			fmt.Fprintf(w, "Build failed: %v\n", err)
			return
		}
		fmt.Fprintf(w, "Built %s (%d bytes) in %s\n", relPath(base, res.Bundle), res.BundleBytes(), res.Duration.Round(time.Millisecond))
	})
}
