// Package manifest records what a build produced: a build id, the
// fingerprint of the configuration record and a CRC64-NVME checksum for
// every output file, optionally alongside zstd archives of the outputs.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
	"github.com/wolfeidau/extbundle/internal/telemetry"
)

// FileName is the manifest written next to the bundle
const FileName = "manifest.json"

const currentVersion = 1

var (
	// ErrManifestNotFound is returned when the output directory has no manifest
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrVerifyFailed is returned when outputs do not match the manifest
	ErrVerifyFailed = errors.New("bundle verification failed")
	// ErrUnsupportedVersion is returned for manifests written by a newer release
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
)

// Manifest describes one build's outputs
type Manifest struct {
	Version           int       `json:"version"`
	BuildID           string    `json:"build_id"`
	CreatedAt         time.Time `json:"created_at"`
	ConfigFingerprint string    `json:"config_fingerprint"`
	Mode              string    `json:"mode"`
	Bundle            string    `json:"bundle"`
	Files             []File    `json:"files"`
}

// File is a single output and its checksum
type File struct {
	// Path relative to the output directory, slash separated
	Path         string `json:"path"`
	Bytes        int64  `json:"bytes"`
	CRC64        string `json:"crc64"`
	Archive      string `json:"archive,omitempty"`
	ArchiveBytes int64  `json:"archive_bytes,omitempty"`
}

// Options controls manifest creation
type Options struct {
	// Compress writes a zstd archive next to every output
	Compress bool
}

// Create checksums the outputs of a build of cfg and writes the manifest into
// the output directory. Outputs outside the output directory are skipped.
func Create(ctx context.Context, cfg *buildconfig.Config, outputs []string, opts Options) (*Manifest, error) {
	fingerprint, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}

	buildID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate build id: %w", err)
	}

	dir := cfg.OutputDir()
	m := &Manifest{
		Version:           currentVersion,
		BuildID:           buildID.String(),
		CreatedAt:         time.Now().UTC(),
		ConfigFingerprint: fingerprint,
		Mode:              string(cfg.Effective().Mode),
		Bundle:            cfg.Output.Filename,
	}

	var saved int64
	for _, path := range outputs {
		rel, err := filepath.Rel(dir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			log.Warn().Str("file", path).Str("dir", dir).Msg("Output outside output directory, not recorded")
			continue
		}

		sum, size, err := checksumFile(path)
		if err != nil {
			return nil, err
		}

		file := File{
			Path:  filepath.ToSlash(rel),
			Bytes: size,
			CRC64: sum,
		}

		if opts.Compress {
			archivePath := path + archiveExt
			archived, err := archiveFile(path, archivePath)
			if err != nil {
				return nil, err
			}
			file.Archive = filepath.ToSlash(rel) + archiveExt
			file.ArchiveBytes = archived
			saved += size - archived
		}

		m.Files = append(m.Files, file)
	}

	sort.Slice(m.Files, func(i, j int) bool {
		return m.Files[i].Path < m.Files[j].Path
	})

	if err := m.Save(dir); err != nil {
		return nil, err
	}

	metrics := telemetry.GetMetrics()
	metrics.ManifestsWritten.Add(ctx, 1)
	if saved > 0 {
		metrics.ArchiveBytesSaved.Add(ctx, saved)
	}

	log.Info().
		Str("build_id", m.BuildID).
		Str("fingerprint", m.ConfigFingerprint).
		Int("files", len(m.Files)).
		Bool("compressed", opts.Compress).
		Msg("Wrote build manifest")

	return m, nil
}

// Save writes the manifest into dir.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	// #nosec G306 - the manifest ships with the bundle
	if err := os.WriteFile(filepath.Join(dir, FileName), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads the manifest in dir.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version > currentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	return &m, nil
}

// checksumFile returns the hex CRC64-NVME and size of the file at path
func checksumFile(path string) (string, int64, error) {
	f, err := os.Open(path) // #nosec G304 - output path produced by the build
	if err != nil {
		return "", 0, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	return checksumReader(f)
}

func checksumReader(r io.Reader) (string, int64, error) {
	h := crc64nvme.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to checksum: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), n, nil
}
