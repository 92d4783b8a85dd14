package buildconfig

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "staging" },
			wantErr: ErrInvalidMode,
		},
		{
			name:   "versioned node target",
			mutate: func(c *Config) { c.Target = "node18.17" },
		},
		{
			name:    "unknown target",
			mutate:  func(c *Config) { c.Target = "electron-main" },
			wantErr: ErrInvalidTarget,
		},
		{
			name:   "cheap module source map",
			mutate: func(c *Config) { c.Devtool = "eval-cheap-module-source-map" },
		},
		{
			name:    "unknown devtool",
			mutate:  func(c *Config) { c.Devtool = "sourcemap" },
			wantErr: ErrInvalidDevtool,
		},
		{
			name:    "umd library target",
			mutate:  func(c *Config) { c.Output.LibraryTarget = "umd" },
			wantErr: ErrInvalidLibraryTarget,
		},
		{
			name:    "missing entry",
			mutate:  func(c *Config) { c.Entry = "" },
			wantErr: ErrMissingField,
		},
		{
			name:    "filename with directory",
			mutate:  func(c *Config) { c.Output.Filename = "dist/extension.js" },
			wantErr: ErrInvalidOutput,
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Resolve.Extensions = []string{"ts"} },
			wantErr: ErrInvalidExtension,
		},
		{
			name:    "bad rule pattern",
			mutate:  func(c *Config) { c.Module.Rules[0].Test = `\.ts(` },
			wantErr: ErrInvalidRule,
		},
		{
			name:   "slash form rule pattern",
			mutate: func(c *Config) { c.Module.Rules[0].Test = `/\.tsx?$/i` },
		},
		{
			name:    "unsupported regex flag",
			mutate:  func(c *Config) { c.Module.Rules[0].Test = `/\.tsx?$/g` },
			wantErr: ErrInvalidRule,
		},
		{
			name:   "bare pattern starting with a slash",
			mutate: func(c *Config) { c.Module.Rules[0].Test = `/src/.*\.ts$` },
		},
		{
			name:    "unknown loader",
			mutate:  func(c *Config) { c.Module.Rules[0].Loader = "awesome-typescript-loader" },
			wantErr: ErrUnknownLoader,
		},
		{
			name:    "global external",
			mutate:  func(c *Config) { c.Externals["jquery"] = "var jQuery" },
			wantErr: ErrUnsupportedExternal,
		},
		{
			name:    "module external with commonjs output",
			mutate:  func(c *Config) { c.Externals["vscode"] = "module vscode" },
			wantErr: ErrUnsupportedExternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default("")
	cfg.Mode = "fast"
	cfg.Target = "deno"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidMode)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestParseExternal(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    External
		wantErr bool
	}{
		{
			name:  "commonjs strategy",
			value: "commonjs vscode",
			want:  External{Name: "vscode", Type: ExternalCommonJS, Request: "vscode"},
		},
		{
			name:  "empty keeps name",
			value: "",
			want:  External{Name: "vscode", Request: "vscode"},
		},
		{
			name:  "bare request renames",
			value: "vscode-shim",
			want:  External{Name: "vscode", Request: "vscode-shim"},
		},
		{
			name:    "type without request",
			value:   "commonjs",
			wantErr: true,
		},
		{
			name:    "global strategy",
			value:   "global vscode",
			wantErr: true,
		},
		{
			name:    "too many fields",
			value:   "commonjs vscode extra",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExternal("vscode", tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedExternal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformRule_Regexp(t *testing.T) {
	tests := []struct {
		test    string
		match   []string
		noMatch []string
		wantErr bool
	}{
		{test: `\.ts?$`, match: []string{"a.ts", "a.t"}, noMatch: []string{"a.tsx", "a.TS"}},
		{test: `/\.tsx?$/`, match: []string{"a.ts", "a.tsx"}, noMatch: []string{"a.TS"}},
		{test: `/\.tsx?$/i`, match: []string{"a.TS", "a.Tsx"}, noMatch: []string{"a.js"}},
		{test: `/src/.*\.ts$`, match: []string{"/work/src/a.ts"}, noMatch: []string{"/work/lib/a.ts"}},
		{test: `/\.ts$/gi`, wantErr: true},
		{test: `/\.ts(/`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.test, func(t *testing.T) {
			re, err := TransformRule{Test: tt.test, Loader: "ts-loader"}.Regexp()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRule)
				return
			}
			require.NoError(t, err)
			for _, path := range tt.match {
				assert.True(t, re.MatchString(path), path)
			}
			for _, path := range tt.noMatch {
				assert.False(t, re.MatchString(path), path)
			}
		})
	}
}

func TestSourceMapPolicy(t *testing.T) {
	assert.False(t, DevtoolNone.Enabled())
	assert.True(t, DevtoolSourceMap.Enabled())
	assert.False(t, DevtoolSourceMap.Inline())
	assert.True(t, DevtoolInlineSourceMap.Inline())
	assert.False(t, DevtoolEval.Enabled())
	assert.False(t, DevtoolEval.Inline())
	assert.True(t, DevtoolEvalSourceMap.Enabled())
	assert.True(t, DevtoolEvalSourceMap.Inline())
	assert.True(t, DevtoolHiddenSourceMap.Hidden())
	assert.True(t, DevtoolNosourcesSourceMap.ExcludesSources())
}

func writeEntry(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "extension.ts"), []byte("export function activate() {}\n"), 0600))
}

func TestCheckFilesystem(t *testing.T) {
	tmpDir := t.TempDir()
	writeEntry(t, tmpDir)

	cfg := Default(tmpDir)
	require.NoError(t, cfg.CheckFilesystem())

	info, err := os.Stat(cfg.OutputDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(cfg.OutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "write check leaves no temporary file")
}

func TestCheckFilesystem_MissingEntry(t *testing.T) {
	cfg := Default(t.TempDir())
	require.ErrorIs(t, cfg.CheckFilesystem(), ErrEntryNotFound)
}

func TestCheckFilesystem_EntryIsDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "src", "extension.ts"), 0750))

	cfg := Default(tmpDir)
	require.ErrorIs(t, cfg.CheckFilesystem(), ErrEntryNotFound)
}

func TestCheckFilesystem_OutputOverwritesEntry(t *testing.T) {
	tmpDir := t.TempDir()
	writeEntry(t, tmpDir)

	cfg := Default(tmpDir)
	cfg.Output.Path = "src"
	cfg.Output.Filename = "extension.ts"
	require.ErrorIs(t, cfg.CheckFilesystem(), ErrOutputOverwritesEntry)
}

func TestCheckFilesystem_OutputNotWritable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	tmpDir := t.TempDir()
	writeEntry(t, tmpDir)

	readOnly := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.MkdirAll(readOnly, 0500))
	t.Cleanup(func() { _ = os.Chmod(readOnly, 0700) })

	cfg := Default(tmpDir)
	cfg.Output.Path = "readonly"
	require.ErrorIs(t, cfg.CheckFilesystem(), ErrOutputNotWritable)
}
