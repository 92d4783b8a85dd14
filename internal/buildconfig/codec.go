package buildconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a configuration file.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
)

// searchOrder is the order Find looks for configuration files in.
var searchOrder = []string{
	DefaultFileName,
	"extbundle.yml",
	"extbundle.json",
	"extbundle.jsonc",
}

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parse decodes a configuration document. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Parse(data []byte, format Format) (*Config, error) {
	// decoded stays nil for an empty or null document
	var decoded *Config

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&decoded); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyConfig
			}
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case FormatJSON, FormatJSONC:
		if format == FormatJSONC {
			data = jsonc.ToJSON(data)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, ErrEmptyConfig
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&decoded); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("parsing json: unexpected content after the configuration object")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}

	if decoded == nil {
		return nil, ErrEmptyConfig
	}
	decoded.normalize()

	return decoded, nil
}

// normalize folds empty collections into nil. An empty list or map means the
// same as an absent key, which is how the bundler treats them.
func (c *Config) normalize() {
	if len(c.Resolve.Extensions) == 0 {
		c.Resolve.Extensions = nil
	}
	if len(c.Module.Rules) == 0 {
		c.Module.Rules = nil
	}
	if len(c.Externals) == 0 {
		c.Externals = nil
	}
}

// Load reads and parses a configuration file. Relative paths in the record
// resolve against the directory containing the file.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	cfg.baseDir = dir

	log.Debug().Str("path", path).Str("format", string(format)).Msg("build configuration loaded")

	return cfg, nil
}

// Find returns the first configuration file present in dir.
func Find(dir string) (string, error) {
	if paths := FindAll(dir); len(paths) > 0 {
		return paths[0], nil
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrConfigNotFound, dir, strings.Join(searchOrder, ", "))
}

// FindAll returns every configuration file present in dir, in search order.
func FindAll(dir string) []string {
	var paths []string
	for _, name := range searchOrder {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			paths = append(paths, path)
		}
	}
	return paths
}

// Marshal encodes the record. JSONC output is plain JSON, which is valid
// JSONC.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		buf := new(bytes.Buffer)
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, FormatJSONC:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}

// Save writes the record to path in the encoding implied by its extension.
func (c *Config) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := c.Marshal(format)
	if err != nil {
		return err
	}

	// #nosec G306 - configuration files are meant to be committed and shared
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
