package buildconfig

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Mode selects the default optimization behavior.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Validate reports whether m is a known mode. An empty mode is allowed and
// behaves as production.
func (m Mode) Validate() error {
	switch m {
	case "", ModeDevelopment, ModeProduction:
		return nil
	}
	return fmt.Errorf("%w: %q (expected development or production)", ErrInvalidMode, string(m))
}

// SourceMapPolicy controls emission and fidelity of debug maps.
type SourceMapPolicy string

const (
	DevtoolNone               SourceMapPolicy = "none"
	DevtoolEval               SourceMapPolicy = "eval"
	DevtoolSourceMap          SourceMapPolicy = "source-map"
	DevtoolInlineSourceMap    SourceMapPolicy = "inline-source-map"
	DevtoolHiddenSourceMap    SourceMapPolicy = "hidden-source-map"
	DevtoolNosourcesSourceMap SourceMapPolicy = "nosources-source-map"
	DevtoolCheapSourceMap     SourceMapPolicy = "cheap-source-map"
	DevtoolEvalSourceMap      SourceMapPolicy = "eval-source-map"
)

// devtoolPattern accepts the webpack devtool grammar:
// [inline-|hidden-|eval-][nosources-][cheap-[module-]]source-map
var devtoolPattern = regexp.MustCompile(`^(inline-|hidden-|eval-)?(nosources-)?(cheap-(module-)?)?source-map$`)

// Validate reports whether p is a known policy. Empty means the mode default.
func (p SourceMapPolicy) Validate() error {
	switch p {
	case "", DevtoolNone, DevtoolEval:
		return nil
	}
	if devtoolPattern.MatchString(string(p)) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDevtool, string(p))
}

// Enabled reports whether any source map is emitted. Bare eval wraps modules
// without producing a map.
func (p SourceMapPolicy) Enabled() bool {
	return p != "" && p != DevtoolNone && p != DevtoolEval
}

// Inline reports whether the map is embedded in the bundle.
func (p SourceMapPolicy) Inline() bool {
	s := string(p)
	return strings.HasPrefix(s, "inline-") || strings.HasPrefix(s, "eval-")
}

// Hidden reports whether the map is written without a reference comment.
func (p SourceMapPolicy) Hidden() bool {
	return strings.HasPrefix(string(p), "hidden-")
}

// ExcludesSources reports whether original sources are left out of the map.
func (p SourceMapPolicy) ExcludesSources() bool {
	return strings.Contains(string(p), "nosources-")
}

// Target is the runtime the bundle executes in.
type Target string

// literalRulePattern matches the webpack regex literal form /pattern/flags.
// Anything else is a plain RE2 pattern, including paths that start with /.
var literalRulePattern = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

var nodeTargetPattern = regexp.MustCompile(`^node(\d+(\.\d+){0,2})?$`)

// Validate reports whether t is a supported runtime.
func (t Target) Validate() error {
	switch t {
	case "", "web", "webworker", "neutral":
		return nil
	}
	if nodeTargetPattern.MatchString(string(t)) {
		return nil
	}
	return fmt.Errorf("%w: %q (expected node, nodeX, web, webworker or neutral)", ErrInvalidTarget, string(t))
}

// IsNode reports whether t targets node. An empty target defaults to node.
func (t Target) IsNode() bool {
	return t == "" || strings.HasPrefix(string(t), "node")
}

// NodeVersion returns the version suffix of a versioned node target such as
// node18.17, or the empty string.
func (t Target) NodeVersion() string {
	if !t.IsNode() {
		return ""
	}
	return strings.TrimPrefix(string(t), "node")
}

// LibraryTarget is the module format the bundle exposes.
type LibraryTarget string

const (
	LibraryCommonJS2 LibraryTarget = "commonjs2"
	LibraryCommonJS  LibraryTarget = "commonjs"
	LibraryModule    LibraryTarget = "module"
	LibraryESM       LibraryTarget = "esm"
	LibraryVar       LibraryTarget = "var"
	LibraryIIFE      LibraryTarget = "iife"
)

// Validate reports whether l is a supported format. Empty defaults to
// commonjs2.
func (l LibraryTarget) Validate() error {
	switch l {
	case "", LibraryCommonJS2, LibraryCommonJS, LibraryModule, LibraryESM, LibraryVar, LibraryIIFE:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidLibraryTarget, string(l))
}

// IsESM reports whether the bundle uses ECMAScript module syntax.
func (l LibraryTarget) IsESM() bool {
	return l == LibraryModule || l == LibraryESM
}

// TransformRule pairs a file pattern with the compiler that converts matched
// files into something the bundler can consume.
type TransformRule struct {
	Test   string `yaml:"test" json:"test"`
	Loader string `yaml:"loader" json:"loader"`
}

// KnownLoaders lists the compiler names a rule may reference.
var KnownLoaders = []string{
	"ts-loader",
	"esbuild-loader",
	"swc-loader",
	"babel-loader",
	"json-loader",
	"css-loader",
	"raw-loader",
	"file-loader",
	"url-loader",
	"asset/source",
	"asset/resource",
	"asset/inline",
}

// Regexp compiles the rule pattern. Patterns may be written as a bare
// expression (\.ts$) or in slash form with an optional i flag (/\.ts$/i).
func (r TransformRule) Regexp() (*regexp.Regexp, error) {
	pattern := r.Test
	if m := literalRulePattern.FindStringSubmatch(r.Test); m != nil {
		pattern = m[1]
		for _, f := range m[2] {
			if f != 'i' {
				return nil, fmt.Errorf("%w: unsupported flag %q in %s", ErrInvalidRule, f, r.Test)
			}
		}
		if m[2] != "" {
			pattern = "(?i)" + pattern
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Test, err)
	}
	return re, nil
}

func (r TransformRule) validate() error {
	if r.Test == "" {
		return fmt.Errorf("%w: empty test pattern", ErrInvalidRule)
	}
	if r.Loader == "" {
		return fmt.Errorf("%w: %s has no loader", ErrInvalidRule, r.Test)
	}
	if !slices.Contains(KnownLoaders, r.Loader) {
		return fmt.Errorf("%w: %q", ErrUnknownLoader, r.Loader)
	}
	_, err := r.Regexp()
	return err
}
