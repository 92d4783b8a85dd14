package manifest

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

const archiveExt = ".zst"

// archiveFile compresses src into dst with zstd and returns the compressed size
func archiveFile(src, dst string) (int64, error) {
	in, err := os.Open(src) // #nosec G304 - output path produced by the build
	if err != nil {
		return 0, fmt.Errorf("failed to open output: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst) // #nosec G304 - archive lives next to the output
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		_ = out.Close()
		os.Remove(dst)
		return 0, fmt.Errorf("failed to compress: %w", err)
	}

	// Close encoder to flush
	if err := enc.Close(); err != nil {
		_ = out.Close()
		os.Remove(dst)
		return 0, fmt.Errorf("failed to close encoder: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to stat archive: %w", err)
	}

	log.Debug().
		Str("archive", dst).
		Int64("compressed_bytes", info.Size()).
		Msg("Archived output with zstd")

	return info.Size(), nil
}

// checksumArchive decompresses the archive at path and checksums the content
func checksumArchive(path string) (string, int64, error) {
	f, err := os.Open(path) // #nosec G304 - archive path recorded in the manifest
	if err != nil {
		return "", 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	return checksumReader(dec)
}
