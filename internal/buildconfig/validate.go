package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validate checks the record for structural problems. All problems are
// reported together; each one wraps a sentinel error.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Mode.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Devtool.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Target.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Output.LibraryTarget.Validate(); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(c.Entry) == "" {
		errs = append(errs, fmt.Errorf("%w: entry", ErrMissingField))
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: output.path", ErrMissingField))
	}
	switch {
	case strings.TrimSpace(c.Output.Filename) == "":
		errs = append(errs, fmt.Errorf("%w: output.filename", ErrMissingField))
	case strings.ContainsAny(c.Output.Filename, `/\`):
		errs = append(errs, fmt.Errorf("%w: output.filename must not contain a path separator: %s", ErrInvalidOutput, c.Output.Filename))
	}

	for _, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, `/\ `) {
			errs = append(errs, fmt.Errorf("%w: %q must start with a dot", ErrInvalidExtension, ext))
		}
	}

	for i, rule := range c.Module.Rules {
		if err := rule.validate(); err != nil {
			errs = append(errs, fmt.Errorf("module.rules[%d]: %w", i, err))
		}
	}

	if _, err := c.ExternalModules(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// CheckFilesystem checks the invariants that depend on the disk: the entry is
// an existing readable file, the bundle would not overwrite it and the output
// directory can be written. The output directory is created when missing.
func (c *Config) CheckFilesystem() error {
	entry := c.EntryFile()

	info, err := os.Stat(entry)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEntryNotFound, entry, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrEntryNotFound, entry)
	}

	f, err := os.Open(entry) // #nosec G304 - entry path comes from the build configuration
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEntryNotReadable, entry, err)
	}
	_ = f.Close()

	out := c.OutputFile()
	if out == entry {
		return fmt.Errorf("%w: %s", ErrOutputOverwritesEntry, out)
	}
	if outInfo, err := os.Stat(out); err == nil && os.SameFile(info, outInfo) {
		return fmt.Errorf("%w: %s links to %s", ErrOutputOverwritesEntry, out, entry)
	}

	dir := c.OutputDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputNotWritable, dir, err)
	}
	probe, err := os.CreateTemp(dir, ".extbundle-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputNotWritable, dir, err)
	}
	probePath := probe.Name()
	_ = probe.Close()
	if err := os.Remove(probePath); err != nil {
		return fmt.Errorf("%w: removing probe %s: %v", ErrOutputNotWritable, filepath.Base(probePath), err)
	}

	return nil
}
