// Package buildconfig holds the build configuration record for an extension
// bundle: where the entry lives, how modules resolve, which compiler handles
// which source files and which modules the host runtime provides.
//
// A Config is loaded once per build, validated, and then handed read-only to
// the bundler. Nothing in this package mutates a Config after it is parsed.
package buildconfig

import (
	"os"
	"path/filepath"
)

// DefaultFileName is the configuration file written by init and searched for
// first when no path is given.
const DefaultFileName = "extbundle.yaml"

// Config is the build configuration record.
type Config struct {
	Mode         Mode              `yaml:"mode,omitempty" json:"mode,omitempty"`
	Devtool      SourceMapPolicy   `yaml:"devtool,omitempty" json:"devtool,omitempty"`
	Context      string            `yaml:"context,omitempty" json:"context,omitempty"`
	Entry        string            `yaml:"entry" json:"entry"`
	Target       Target            `yaml:"target,omitempty" json:"target,omitempty"`
	Output       Output            `yaml:"output" json:"output"`
	Resolve      Resolve           `yaml:"resolve,omitempty" json:"resolve,omitempty"`
	Optimization Optimization      `yaml:"optimization,omitempty" json:"optimization,omitempty"`
	Module       Module            `yaml:"module,omitempty" json:"module,omitempty"`
	Externals    map[string]string `yaml:"externals,omitempty" json:"externals,omitempty"`

	// baseDir is the directory of the file the record was loaded from
	baseDir string
}

type Output struct {
	// Directory the bundle is written to
	Path string `yaml:"path" json:"path"`
	// Module format of the bundle (commonjs2, module, ...)
	LibraryTarget LibraryTarget `yaml:"libraryTarget,omitempty" json:"libraryTarget,omitempty"`
	// File name of the bundle inside Path
	Filename string `yaml:"filename" json:"filename"`
}

type Resolve struct {
	// Suffixes tried, in order, for imports that omit an extension
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

type Optimization struct {
	// Minimize is nil when the mode default applies
	Minimize *bool `yaml:"minimize,omitempty" json:"minimize,omitempty"`
}

type Module struct {
	Rules []TransformRule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Default returns the configuration of a node extension compiled from
// TypeScript, with the editor API provided by the host at runtime.
func Default(dir string) *Config {
	return &Config{
		Mode:    ModeProduction,
		Devtool: DevtoolSourceMap,
		Entry:   "./src/extension.ts",
		Target:  "node",
		Output: Output{
			Path:          "out",
			LibraryTarget: LibraryCommonJS2,
			Filename:      "extension.js",
		},
		Resolve: Resolve{
			Extensions: []string{".ts", ".tsx", ".js"},
		},
		Optimization: Optimization{
			Minimize: Bool(false),
		},
		Module: Module{
			Rules: []TransformRule{
				{Test: `\.ts?$`, Loader: "ts-loader"},
			},
		},
		Externals: map[string]string{
			"vscode": "commonjs vscode",
		},
		baseDir: dir,
	}
}

// Bool returns a pointer to b, for the optional fields of the record.
func Bool(b bool) *bool {
	return &b
}

// WithBaseDir returns a shallow copy of c whose relative paths resolve
// against dir.
func (c *Config) WithBaseDir(dir string) *Config {
	cp := *c
	cp.baseDir = dir
	return &cp
}

// BaseDir returns the directory relative paths in the record resolve against
// when no context is set.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// ContextDir returns the absolute directory that entry and output paths are
// relative to.
func (c *Config) ContextDir() string {
	base := c.baseDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	dir := base
	if c.Context != "" {
		dir = c.Context
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// EntryFile returns the absolute path of the entry module.
func (c *Config) EntryFile() string {
	return c.resolvePath(c.Entry)
}

// OutputDir returns the absolute directory the bundle is written to.
func (c *Config) OutputDir() string {
	return c.resolvePath(c.Output.Path)
}

// OutputFile returns the absolute path of the emitted bundle.
func (c *Config) OutputFile() string {
	return filepath.Join(c.OutputDir(), c.Output.Filename)
}

func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ContextDir(), p)
}
