package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

// externalsPlugin leaves host provided modules out of the bundle and rewrites
// their specifier to the configured request.
func externalsPlugin(externals []buildconfig.External) api.Plugin {
	byName := make(map[string]buildconfig.External, len(externals))
	names := make([]string, 0, len(externals))
	for _, ext := range externals {
		byName[ext.Name] = ext
		names = append(names, regexp.QuoteMeta(ext.Name))
	}

	return api.Plugin{
		Name: "extbundle-externals",
		Setup: func(build api.PluginBuild) {
			if len(names) == 0 {
				return
			}
			filter := `^(` + strings.Join(names, "|") + `)(/.*)?$`
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				name, subpath := args.Path, ""
				if _, ok := byName[name]; !ok {
					// deep import such as "module/sub/path"
					for candidate := range byName {
						if strings.HasPrefix(args.Path, candidate+"/") {
							name, subpath = candidate, strings.TrimPrefix(args.Path, candidate)
							break
						}
					}
				}
				ext, ok := byName[name]
				if !ok {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{
					Path:     ext.Request + subpath,
					External: true,
				}, nil
			})
		},
	}
}

// coverageTracker records which extensions a build reached and which files
// no rule covered. esbuild runs plugin callbacks concurrently.
type coverageTracker struct {
	// audit keeps the build going past uncovered files
	audit bool

	mu        sync.Mutex
	workDir   string
	reached   map[string]int
	ruled     map[string]bool
	native    map[string]bool
	uncovered map[string][]string
}

func newCoverageTracker(workDir string, audit bool) *coverageTracker {
	// esbuild reports paths with symlinks resolved
	if real, err := filepath.EvalSymlinks(workDir); err == nil {
		workDir = real
	}
	t := &coverageTracker{workDir: workDir, audit: audit}
	t.reset()
	return t
}

func (t *coverageTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reached = make(map[string]int)
	t.ruled = make(map[string]bool)
	t.native = make(map[string]bool)
	t.uncovered = make(map[string][]string)
}

func (t *coverageTracker) reach(ext string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reached[ext]++
}

// loaded records whether a file of ext went through a rule or loaded natively
func (t *coverageTracker) loaded(ext string, byRule bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if byRule {
		t.ruled[ext] = true
	} else {
		t.native[ext] = true
	}
}

// nativeOnly returns the extensions that never matched a rule.
func (t *coverageTracker) nativeOnly() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var exts []string
	for ext := range t.native {
		if !t.ruled[ext] {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

func (t *coverageTracker) miss(ext, path string) string {
	rel := path
	if r, err := filepath.Rel(t.workDir, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = filepath.ToSlash(r)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.uncovered[ext] = append(t.uncovered[ext], rel)
	return rel
}

func (t *coverageTracker) extensions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.reached)
}

func (t *coverageTracker) modules() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.reached {
		total += n
	}
	return total
}

// err returns an *UncoveredError when any file was missed.
func (t *coverageTracker) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.uncovered) == 0 {
		return nil
	}
	files := make(map[string][]string, len(t.uncovered))
	for ext, paths := range t.uncovered {
		sorted := append([]string(nil), paths...)
		slices.Sort(sorted)
		files[ext] = sorted
	}
	return &UncoveredError{Files: files}
}

// rulesPlugin applies the first matching transform rule to every loaded file.
// Files no rule matches load natively when the bundler understands them and
// fail otherwise.
func rulesPlugin(rules []compiledRule, tracker *coverageTracker) api.Plugin {
	return api.Plugin{
		Name: "extbundle-rules",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				ext := strings.ToLower(filepath.Ext(args.Path))
				tracker.reach(ext)

				for _, rule := range rules {
					if !rule.re.MatchString(args.Path) {
						continue
					}
					contents, err := os.ReadFile(args.Path) // #nosec G304 - path resolved by the bundler from the entry graph
					if err != nil {
						return api.OnLoadResult{}, err
					}
					text := string(contents)
					tracker.loaded(ext, true)
					return api.OnLoadResult{
						Contents: &text,
						Loader:   loaderFor(rule.loader, args.Path),
					}, nil
				}

				if nativeExtensions[ext] {
					tracker.loaded(ext, false)
					return api.OnLoadResult{}, nil
				}

				rel := tracker.miss(ext, args.Path)
				if tracker.audit {
					empty := ""
					return api.OnLoadResult{Contents: &empty, Loader: api.LoaderJS}, nil
				}
				return api.OnLoadResult{}, fmt.Errorf("%s: no rule in module.rules matches %s", rel, displayExt(ext))
			})
		},
	}
}
