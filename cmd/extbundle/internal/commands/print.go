package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

// PrintCmd prints the build configuration.
type PrintCmd struct {
	ConfigFlags `embed:""`

	Format    string `help:"Output format" enum:"yaml,json" default:"yaml" short:"o"`
	Effective bool   `help:"Apply mode defaults before printing" default:"true" negatable:""`

	out io.Writer
}

func (c *PrintCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := c.load()
	if err != nil {
		return err
	}

	if c.Effective {
		cfg = effectiveConfig(cfg)
	}

	data, err := cfg.Marshal(buildconfig.Format(c.Format))
	if err != nil {
		return err
	}

	fmt.Fprint(stdout(c.out), string(data))
	return nil
}

// effectiveConfig returns a copy of cfg with the mode defaults written out
func effectiveConfig(cfg *buildconfig.Config) *buildconfig.Config {
	eff := cfg.Effective()

	cp := *cfg
	cp.Mode = eff.Mode
	cp.Devtool = eff.Devtool
	cp.Target = eff.Target
	cp.Output.LibraryTarget = eff.LibraryTarget
	cp.Optimization.Minimize = buildconfig.Bool(eff.Minimize)
	return &cp
}
