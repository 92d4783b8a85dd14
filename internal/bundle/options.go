package bundle

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

// nativeExtensions are handled by the bundler without a transform rule
var nativeExtensions = map[string]bool{
	".js":   true,
	".mjs":  true,
	".cjs":  true,
	".json": true,
}

type compiledRule struct {
	re     *regexp.Regexp
	loader string
}

func compileRules(rules []buildconfig.TransformRule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		re, err := rule.Regexp()
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{re: re, loader: rule.Loader})
	}
	return compiled, nil
}

func platform(target buildconfig.Target) api.Platform {
	switch {
	case target.IsNode():
		return api.PlatformNode
	case target == "web" || target == "webworker":
		return api.PlatformBrowser
	}
	return api.PlatformNeutral
}

func format(lib buildconfig.LibraryTarget) api.Format {
	switch lib {
	case buildconfig.LibraryModule, buildconfig.LibraryESM:
		return api.FormatESModule
	case buildconfig.LibraryVar, buildconfig.LibraryIIFE:
		return api.FormatIIFE
	}
	return api.FormatCommonJS
}

func sourceMap(policy buildconfig.SourceMapPolicy) api.SourceMap {
	switch {
	case !policy.Enabled():
		return api.SourceMapNone
	case policy.Inline():
		return api.SourceMapInline
	case policy.Hidden():
		return api.SourceMapExternal
	}
	return api.SourceMapLinked
}

// loaderFor maps a rule's compiler to the esbuild loader for path.
func loaderFor(compiler, path string) api.Loader {
	ext := strings.ToLower(filepath.Ext(path))

	switch compiler {
	case "ts-loader":
		return cond(ext == ".tsx", api.LoaderTSX, api.LoaderTS)
	case "babel-loader":
		switch ext {
		case ".ts", ".mts", ".cts":
			return api.LoaderTS
		case ".tsx":
			return api.LoaderTSX
		}
		return api.LoaderJSX
	case "json-loader":
		return api.LoaderJSON
	case "css-loader":
		return api.LoaderCSS
	case "raw-loader", "asset/source":
		return api.LoaderText
	case "file-loader", "asset/resource":
		return api.LoaderFile
	case "url-loader", "asset/inline":
		return api.LoaderDataURL
	}

	// esbuild-loader and swc-loader pick by extension
	switch ext {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	case ".css":
		return api.LoaderCSS
	}
	return api.LoaderJS
}

// buildOptions translates the configuration record into esbuild options.
func (p *Pipeline) buildOptions(write bool, tracker *coverageTracker) api.BuildOptions {
	eff := p.config.Effective()

	opts := api.BuildOptions{
		EntryPoints:       []string{p.config.EntryFile()},
		Outfile:           p.config.OutputFile(),
		AbsWorkingDir:     p.config.ContextDir(),
		Bundle:            true,
		Write:             write,
		Platform:          platform(eff.Target),
		Format:            format(eff.LibraryTarget),
		Sourcemap:         sourceMap(eff.Devtool),
		SourcesContent:    cond(eff.Devtool.ExcludesSources(), api.SourcesContentExclude, api.SourcesContentInclude),
		MinifyWhitespace:  eff.Minimize,
		MinifyIdentifiers: eff.Minimize,
		MinifySyntax:      eff.Minimize,
		ResolveExtensions: p.config.Resolve.Extensions,
		Define: map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", string(eff.Mode)),
		},
		Metafile: true,
		LogLevel: api.LogLevelSilent,
		Plugins: []api.Plugin{
			externalsPlugin(p.externals),
			rulesPlugin(p.rules, tracker),
		},
	}

	if version := eff.Target.NodeVersion(); version != "" {
		opts.Engines = []api.Engine{{Name: api.EngineNode, Version: version}}
	}

	return opts
}
