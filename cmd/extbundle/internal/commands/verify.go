package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/extbundle/internal/manifest"
)

// VerifyCmd checks the outputs in a directory against its manifest.
type VerifyCmd struct {
	ConfigFlags `embed:""`

	Dir string `arg:"" optional:"" help:"Output directory (default: output.path of the configuration)" type:"path"`

	out io.Writer
}

func (c *VerifyCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	dir := c.Dir
	if dir == "" {
		cfg, err := c.load()
		if err != nil {
			return err
		}
		dir = cfg.OutputDir()
	}

	w := stdout(c.out)

	v, err := manifest.Verify(dir)
	if v != nil {
		fmt.Fprintf(w, "Build %s (%s, %s)\n", v.Manifest.BuildID, v.Manifest.Mode, v.Manifest.CreatedAt.Format("2006-01-02 15:04:05"))
		for _, name := range v.Verified {
			fmt.Fprintf(w, "  ok        %s\n", name)
		}
		for _, name := range v.Mismatched {
			fmt.Fprintf(w, "  MODIFIED  %s\n", name)
		}
		for _, name := range v.Missing {
			fmt.Fprintf(w, "  MISSING   %s\n", name)
		}
	}
	return err
}
