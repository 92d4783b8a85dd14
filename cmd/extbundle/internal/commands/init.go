package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

// ErrConfigExists is returned by init when a configuration file is present
var ErrConfigExists = errors.New("build configuration already exists")

// InitCmd writes the default build configuration.
type InitCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory" default:"." type:"path"`
	Format string `help:"Configuration file format" enum:"yaml,json,jsonc" default:"yaml" env:"EXTBUNDLE_INIT_FORMAT"`
	Force  bool   `help:"Overwrite an existing configuration" default:"false"`

	out io.Writer
}

func (c *InitCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	existing := buildconfig.FindAll(c.Dir)
	if len(existing) > 0 && !c.Force {
		return fmt.Errorf("%w: %s\n\nTo overwrite:\n  extbundle init --force %s", ErrConfigExists, existing[0], c.Dir)
	}

	if err := os.MkdirAll(c.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	path := filepath.Join(c.Dir, "extbundle."+c.Format)

	// Find prefers yaml, so a forced init in another format must not leave
	// the old file in front of the new one
	for _, old := range existing {
		if old == path {
			continue
		}
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("failed to remove %s: %w", old, err)
		}
		log.Debug().Str("path", old).Msg("Removed previous configuration")
	}
	if err := buildconfig.Default(c.Dir).Save(path); err != nil {
		return err
	}

	log.Debug().Str("path", path).Bool("force", c.Force).Msg("Wrote default configuration")

	w := stdout(c.out)
	fmt.Fprintf(w, "Wrote %s\n", path)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  extbundle validate")
	fmt.Fprintln(w, "  extbundle build")

	return nil
}
