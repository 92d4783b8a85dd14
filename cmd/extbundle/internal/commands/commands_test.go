package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
	"github.com/wolfeidau/extbundle/internal/bundle"
	"github.com/wolfeidau/extbundle/internal/manifest"
)

const extensionSource = `import * as vscode from 'vscode';
import { greet } from './greet';

export function activate(context: vscode.ExtensionContext): void {
  context.subscriptions.push(
    vscode.commands.registerCommand('companion.hello', () => greet('world')),
  );
}
`

const greetSource = `export function greet(name: string): string {
  return 'hello ' + name;
}
`

// newProject writes a TypeScript extension and its default configuration
func newProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	for name, content := range map[string]string{
		"src/extension.ts": extensionSource,
		"src/greet.ts":     greetSource,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}

	err := (&InitCmd{Dir: dir, Format: "yaml", out: &bytes.Buffer{}}).Run(context.Background(), &Globals{})
	require.NoError(t, err)

	return dir, filepath.Join(dir, buildconfig.DefaultFileName)
}

func TestBuildCmd_Run(t *testing.T) {
	dir, config := newProject(t)
	var out bytes.Buffer

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Minimize: "auto"},
		Metafile:    filepath.Join(dir, "meta.json"),
		Analyze:     true,
		out:         &out,
	}

	err := cmd.Run(context.Background(), &Globals{})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "out", "extension.js"))
	assert.FileExists(t, filepath.Join(dir, "out", "extension.js.map"))
	assert.FileExists(t, filepath.Join(dir, "meta.json"))
	assert.NoFileExists(t, filepath.Join(dir, "out", manifest.FileName))

	assert.Contains(t, out.String(), "Built out/extension.js")
	assert.Contains(t, out.String(), "2 modules")
	assert.Contains(t, out.String(), "Bundle Analysis")
}

func TestBuildCmd_Manifest(t *testing.T) {
	dir, config := newProject(t)
	var out bytes.Buffer

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Minimize: "auto"},
		Compress:    true,
		out:         &out,
	}

	err := cmd.Run(context.Background(), &Globals{})
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	m, err := manifest.Load(outDir)
	require.NoError(t, err)
	require.Len(t, m.Files, 2)
	assert.Equal(t, "extension.js", m.Files[0].Path)
	assert.Equal(t, "extension.js.zst", m.Files[0].Archive)
	assert.FileExists(t, filepath.Join(outDir, "extension.js.map.zst"))
	assert.Contains(t, out.String(), m.BuildID)

	out.Reset()
	err = (&VerifyCmd{ConfigFlags: ConfigFlags{Config: config}, out: &out}).Run(context.Background(), &Globals{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok        extension.js")

	require.NoError(t, os.WriteFile(filepath.Join(outDir, "extension.js"), []byte("tampered"), 0600))

	out.Reset()
	err = (&VerifyCmd{Dir: outDir, out: &out}).Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, manifest.ErrVerifyFailed)
	assert.Contains(t, out.String(), "MODIFIED  extension.js")
}

func TestBuildCmd_Overrides(t *testing.T) {
	dir, config := newProject(t)

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Mode: "development", Minimize: "true"},
		out:         &bytes.Buffer{},
	}

	err := cmd.Run(context.Background(), &Globals{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "extension.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `require("vscode")`)
	assert.NotContains(t, string(data), "\n  ")
}

func TestBuildCmd_InvalidMode(t *testing.T) {
	_, config := newProject(t)

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Mode: "staging", Minimize: "auto"},
		out:         &bytes.Buffer{},
	}

	err := cmd.Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, buildconfig.ErrInvalidMode)
}

func TestBuildCmd_MissingEntry(t *testing.T) {
	dir, config := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "src", "extension.ts")))

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Minimize: "auto"},
		out:         &bytes.Buffer{},
	}

	err := cmd.Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, buildconfig.ErrEntryNotFound)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestValidateCmd_Run(t *testing.T) {
	_, config := newProject(t)
	var out bytes.Buffer

	err := (&ValidateCmd{ConfigFlags: ConfigFlags{Config: config}, out: &out}).Run(context.Background(), &Globals{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "is valid")
	assert.Contains(t, out.String(), ".ts")
}

func TestValidateCmd_Uncovered(t *testing.T) {
	dir, config := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "extension.ts"),
		[]byte("import './theme.css';\n"+extensionSource), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "theme.css"), []byte("a { color: red; }\n"), 0600))

	var out bytes.Buffer
	err := (&ValidateCmd{ConfigFlags: ConfigFlags{Config: config}, out: &out}).Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, bundle.ErrUncoveredExtension)
	assert.Contains(t, out.String(), "UNCOVERED")

	out.Reset()
	err = (&ValidateCmd{ConfigFlags: ConfigFlags{Config: config}, SkipCoverage: true, out: &out}).Run(context.Background(), &Globals{})
	require.NoError(t, err)
}

func TestPrintCmd_Run(t *testing.T) {
	_, config := newProject(t)

	tests := []struct {
		name      string
		format    string
		effective bool
		check     func(t *testing.T, cfg *buildconfig.Config)
	}{
		{
			name:   "record as yaml",
			format: "yaml",
			check: func(t *testing.T, cfg *buildconfig.Config) {
				require.NotNil(t, cfg.Optimization.Minimize)
				assert.False(t, *cfg.Optimization.Minimize)
				assert.Equal(t, buildconfig.SourceMapPolicy("source-map"), cfg.Devtool)
			},
		},
		{
			name:      "effective as json",
			format:    "json",
			effective: true,
			check: func(t *testing.T, cfg *buildconfig.Config) {
				assert.Equal(t, buildconfig.ModeProduction, cfg.Mode)
				assert.Equal(t, buildconfig.SourceMapPolicy("source-map"), cfg.Devtool)
				assert.Equal(t, buildconfig.LibraryTarget("commonjs2"), cfg.Output.LibraryTarget)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &PrintCmd{ConfigFlags: ConfigFlags{Config: config}, Format: tt.format, Effective: tt.effective, out: &out}
			require.NoError(t, cmd.Run(context.Background(), &Globals{}))

			cfg, err := buildconfig.Parse(out.Bytes(), buildconfig.Format(tt.format))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestAnalyzeCmd_Run(t *testing.T) {
	dir, config := newProject(t)
	var out bytes.Buffer

	cmd := &AnalyzeCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Minimize: "auto"},
		Details:     true,
		out:         &out,
	}

	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	assert.Contains(t, out.String(), "greet.ts")
	assert.Contains(t, out.String(), "vscode")
	assert.NoFileExists(t, filepath.Join(dir, "out", "extension.js"))
}

func TestWatchCmd_CancelledContext(t *testing.T) {
	_, config := newProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &WatchCmd{
		ConfigFlags: ConfigFlags{Config: config},
		BuildFlags:  BuildFlags{Minimize: "auto"},
		out:         &bytes.Buffer{},
	}
	require.NoError(t, cmd.Run(ctx, &Globals{}))
}
