package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/extbundle/cmd/extbundle/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Init     commands.InitCmd     `cmd:"" help:"Write the default build configuration"`
		Validate commands.ValidateCmd `cmd:"" help:"Validate the build configuration and transform coverage"`
		Print    commands.PrintCmd    `cmd:"" help:"Print the build configuration"`
		Build    commands.BuildCmd    `cmd:"" help:"Bundle the extension"`
		Watch    commands.WatchCmd    `cmd:"" help:"Bundle the extension and rebuild on change"`
		Analyze  commands.AnalyzeCmd  `cmd:"" help:"Report the size breakdown of the bundle"`
		Verify   commands.VerifyCmd   `cmd:"" help:"Verify bundle outputs against the build manifest"`
		Debug    bool                 `help:"Enable debug mode." env:"EXTBUNDLE_DEBUG"`
		Tracing  bool                 `help:"Export traces and metrics over OTLP." env:"EXTBUNDLE_TRACING"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("extbundle"),
		kong.Description("Build configuration and bundler driver for editor extensions."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Tracing: cli.Tracing, Version: version})
	cmd.FatalIfErrorf(err)
}
