package bundle

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// Metafile is the esbuild metafile JSON structure
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is the share of an input in an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func parseMetafile(data string) (*Metafile, error) {
	var meta Metafile
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &meta, nil
}

// ExternalImports returns every import the bundle leaves to the host runtime.
func (m *Metafile) ExternalImports() []string {
	seen := make(map[string]bool)
	for _, out := range m.Outputs {
		for _, imp := range out.Imports {
			if imp.External {
				seen[imp.Path] = true
			}
		}
	}
	return sortedKeys(seen)
}

// OutputFile is a file written by a build
type OutputFile struct {
	Path  string
	Bytes int
}

// Result summarizes one build
type Result struct {
	// Bundle is the absolute path of the emitted bundle
	Bundle   string
	Outputs  []OutputFile
	Modules  int
	Warnings []string
	Duration time.Duration
	Metafile *Metafile
}

// BundleBytes returns the size of the bundle file, excluding source maps and
// assets.
func (r *Result) BundleBytes() int {
	for _, out := range r.Outputs {
		if out.Path == r.Bundle {
			return out.Bytes
		}
	}
	return 0
}

func outputsFromMetafile(meta *Metafile, workDir string) []OutputFile {
	outputs := make([]OutputFile, 0, len(meta.Outputs))
	for path, out := range meta.Outputs {
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		outputs = append(outputs, OutputFile{Path: path, Bytes: out.Bytes})
	}
	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].Path < outputs[j].Path
	})
	return outputs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
