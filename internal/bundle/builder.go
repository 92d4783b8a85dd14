package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/extbundle/internal/telemetry"
)

var tracer = otel.Tracer("github.com/wolfeidau/extbundle/internal/bundle")

// Build runs esbuild with the configured settings, writes the bundle and
// loads the build metadata
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracer.Start(ctx, "bundle.Build")
	defer span.End()

	eff := p.config.Effective()
	span.SetAttributes(
		attribute.String("extbundle.entry", p.config.Entry),
		attribute.String("extbundle.mode", string(eff.Mode)),
	)

	log.Info().
		Str("entry", p.config.EntryFile()).
		Str("outfile", p.config.OutputFile()).
		Str("mode", string(eff.Mode)).
		Bool("minimize", eff.Minimize).
		Str("devtool", string(eff.Devtool)).
		Msg("Building bundle")

	tracker := newCoverageTracker(p.config.ContextDir(), false)
	started := time.Now()

	result, err := p.run(ctx, p.buildOptions(true, tracker))
	if err != nil {
		p.recordFailure(ctx, span, err)
		return nil, err
	}

	res, err := p.collect(&result, tracker, started)
	if err != nil {
		p.recordFailure(ctx, span, err)
		return nil, err
	}

	if p.opts.MetafilePath != "" {
		if err := os.WriteFile(p.opts.MetafilePath, []byte(result.Metafile), 0600); err != nil {
			return nil, fmt.Errorf("failed to write metafile: %w", err)
		}
		log.Debug().Str("path", p.opts.MetafilePath).Msg("Wrote metafile")
	}

	p.metadata = res.Metafile
	p.recordSuccess(ctx, res)
	span.SetAttributes(attribute.Int("extbundle.bundle_bytes", res.BundleBytes()))

	return res, nil
}

// Coverage walks the dependency graph from the entry without writing
// anything. It reports every reachable extension and external import; when a
// reachable file is covered by no rule and is not natively handled it returns
// the report together with an *UncoveredError.
func (p *Pipeline) Coverage(ctx context.Context) (*CoverageReport, error) {
	ctx, span := tracer.Start(ctx, "bundle.Coverage")
	defer span.End()

	tracker := newCoverageTracker(p.config.ContextDir(), true)

	result, err := p.run(ctx, p.buildOptions(false, tracker))
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}

	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return nil, err
	}

	report := &CoverageReport{
		Extensions: tracker.extensions(),
		Externals:  meta.ExternalImports(),
		Modules:    tracker.modules(),
		Native:     tracker.nativeOnly(),
	}

	if err := tracker.err(); err != nil {
		var uncovered *UncoveredError
		if errors.As(err, &uncovered) {
			report.Uncovered = uncovered.Files
			telemetry.GetMetrics().UncoveredFiles.Add(ctx, int64(len(uncovered.Files)))
		}
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	return report, nil
}

// Analyze bundles in memory and returns the size breakdown of the bundle.
func (p *Pipeline) Analyze(ctx context.Context) (*Report, error) {
	tracker := newCoverageTracker(p.config.ContextDir(), false)
	started := time.Now()

	result, err := p.run(ctx, p.buildOptions(false, tracker))
	if err != nil {
		return nil, err
	}

	res, err := p.collect(&result, tracker, started)
	if err != nil {
		return nil, err
	}

	return Analyze(res.Metafile, p.config.ContextDir()), nil
}

// Watch builds once and then rebuilds whenever an input changes, until ctx is
// cancelled. onBuild receives the outcome of every build, including the first.
func (p *Pipeline) Watch(ctx context.Context, onBuild func(*Result, error)) error {
	tracker := newCoverageTracker(p.config.ContextDir(), false)
	opts := p.buildOptions(true, tracker)

	var (
		started time.Time
		builds  int
	)
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "extbundle-watch",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				tracker.reset()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				builds++
				if builds > 1 {
					telemetry.GetMetrics().WatchRebuildTotal.Add(ctx, 1)
				}

				res, err := p.collect(result, tracker, started)
				if err != nil {
					log.Error().Err(err).Msg("Rebuild failed")
				} else {
					p.mu.Lock()
					p.metadata = res.Metafile
					p.mu.Unlock()
					log.Info().Dur("duration", res.Duration).Int("bytes", res.BundleBytes()).Msg("Rebuilt bundle")
				}
				if onBuild != nil {
					onBuild(res, err)
				}
				return api.OnEndResult{}, nil
			})
		},
	})

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return buildError(ctxErr.Errors)
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}

	log.Info().Str("entry", p.config.EntryFile()).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

// Metadata returns the metafile of the last successful build.
func (p *Pipeline) Metadata() (*Metafile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}
	return p.metadata, nil
}

// run executes a single build that is cancelled when ctx is.
func (p *Pipeline) run(ctx context.Context, opts api.BuildOptions) (api.BuildResult, error) {
	if err := ctx.Err(); err != nil {
		return api.BuildResult{}, err
	}

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return api.BuildResult{}, buildError(ctxErr.Errors)
	}
	defer buildCtx.Dispose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			buildCtx.Cancel()
		case <-done:
		}
	}()

	result := buildCtx.Rebuild()
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("build cancelled: %w", err)
	}
	return result, nil
}

// collect turns an esbuild result into a Result, or the error describing why
// the build failed.
func (p *Pipeline) collect(result *api.BuildResult, tracker *coverageTracker, started time.Time) (*Result, error) {
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		if err := tracker.err(); err != nil {
			return nil, err
		}
		return nil, buildError(result.Errors)
	}

	res := &Result{
		Bundle:   p.config.OutputFile(),
		Modules:  tracker.modules(),
		Duration: time.Since(started),
	}

	for _, msg := range result.Warnings {
		text := formatMessage(msg)
		log.Warn().Str("warning", text).Msg("Build warning")
		res.Warnings = append(res.Warnings, text)
	}

	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return nil, err
	}
	res.Metafile = meta
	res.Outputs = outputsFromMetafile(meta, p.config.ContextDir())

	for _, file := range res.Outputs {
		log.Info().Str("file", file.Path).Int("bytes", file.Bytes).Msg("Built file")
	}

	return res, nil
}

func (p *Pipeline) recordSuccess(ctx context.Context, res *Result) {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("mode", string(p.config.Effective().Mode)))
	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildDuration.Record(ctx, float64(res.Duration.Milliseconds()), attrs)
	m.BundleBytes.Record(ctx, int64(res.BundleBytes()), attrs)
	m.ModulesBundled.Record(ctx, int64(res.Modules), attrs)
}

func (p *Pipeline) recordFailure(ctx context.Context, span trace.Span, err error) {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("mode", string(p.config.Effective().Mode)))
	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildErrorsTotal.Add(ctx, 1, attrs)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func buildError(messages []api.Message) error {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, formatMessage(msg))
	}
	return fmt.Errorf("%w with %d error(s): %s", ErrBuildFailed, len(messages), strings.Join(texts, "; "))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}
