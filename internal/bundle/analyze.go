package bundle

import (
	"path/filepath"
	"sort"
	"strings"
)

// Report is the size breakdown of a bundle
type Report struct {
	Bundle     string
	TotalBytes int
	Inputs     []InputShare
	Externals  []string
	Warnings   []string
}

// InputShare is the contribution of one source file to the bundle
type InputShare struct {
	Path          string
	Bytes         int
	BytesInOutput int
	Percentage    float64
	ImportCount   int
}

// largeInputShare flags single inputs that dominate the bundle
const largeInputShare = 50.0

// Analyze computes the per-input breakdown of the bundle output in meta.
// Source maps and emitted assets are ignored; only the output produced from
// the entry point is reported.
func Analyze(meta *Metafile, workDir string) *Report {
	report := &Report{}
	if meta == nil {
		return report
	}

	outputPath, output, ok := bundleOutput(meta)
	if !ok {
		return report
	}

	report.Bundle = displayPath(outputPath, workDir)
	report.TotalBytes = output.Bytes

	for _, imp := range output.Imports {
		if imp.External {
			report.Externals = append(report.Externals, imp.Path)
		}
	}
	sort.Strings(report.Externals)

	for inputPath, contrib := range output.Inputs {
		input := meta.Inputs[inputPath]

		percentage := 0.0
		if report.TotalBytes > 0 {
			percentage = float64(contrib.BytesInOutput) / float64(report.TotalBytes) * 100
		}

		share := InputShare{
			Path:          displayPath(inputPath, workDir),
			Bytes:         input.Bytes,
			BytesInOutput: contrib.BytesInOutput,
			Percentage:    percentage,
			ImportCount:   len(input.Imports),
		}
		report.Inputs = append(report.Inputs, share)

		if percentage > largeInputShare && len(output.Inputs) > 1 {
			report.Warnings = append(report.Warnings, share.Path+" makes up more than half of the bundle")
		}
	}

	// largest first, path as tie breaker so output is stable
	sort.Slice(report.Inputs, func(i, j int) bool {
		if report.Inputs[i].BytesInOutput != report.Inputs[j].BytesInOutput {
			return report.Inputs[i].BytesInOutput > report.Inputs[j].BytesInOutput
		}
		return report.Inputs[i].Path < report.Inputs[j].Path
	})
	sort.Strings(report.Warnings)

	return report
}

func bundleOutput(meta *Metafile) (string, MetafileOutput, bool) {
	paths := sortedKeys(meta.Outputs)
	for _, path := range paths {
		if meta.Outputs[path].EntryPoint != "" {
			return path, meta.Outputs[path], true
		}
	}
	for _, path := range paths {
		if !strings.HasSuffix(path, ".map") {
			return path, meta.Outputs[path], true
		}
	}
	return "", MetafileOutput{}, false
}

func displayPath(path, workDir string) string {
	if filepath.IsAbs(path) && workDir != "" {
		if rel, err := filepath.Rel(workDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
