package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
	"github.com/wolfeidau/extbundle/internal/logger"
	"github.com/wolfeidau/extbundle/internal/telemetry"
)

const serviceName = "extbundle"

type Globals struct {
	Debug   bool
	Tracing bool
	Version string
}

// setup configures logging and, when enabled, telemetry. The returned
// function flushes telemetry and must be deferred.
func (g *Globals) setup(ctx context.Context) func() {
	l := logger.Setup(g.Debug)

	if !g.Tracing {
		return func() {}
	}

	l.Debug().Msg("Tracing is enabled")
	shutdown, err := telemetry.InitTelemetry(ctx, serviceName, g.Version)
	if err != nil {
		l.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		shutdown = telemetry.Noop
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

// ConfigFlags locates the build configuration file
type ConfigFlags struct {
	Config string `help:"Build configuration file (default: search the working directory)" short:"c" type:"path" env:"EXTBUNDLE_CONFIG"`
}

func (f ConfigFlags) load() (*buildconfig.Config, error) {
	path := f.Config
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = buildconfig.Find(wd)
		if err != nil {
			return nil, err
		}
	}
	return buildconfig.Load(filepath.Clean(path))
}

// stdout returns w, or os.Stdout when commands run from the command line
func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
