package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Verification is the outcome of checking outputs against a manifest
type Verification struct {
	Manifest   *Manifest
	Verified   []string
	Mismatched []string
	Missing    []string
}

// OK reports whether every recorded file matched.
func (v *Verification) OK() bool {
	return len(v.Mismatched) == 0 && len(v.Missing) == 0
}

// Verify recomputes the checksum of every file recorded in the manifest in
// dir, including archives. It returns the verification and ErrVerifyFailed
// when anything is missing or changed.
func Verify(dir string) (*Verification, error) {
	m, err := Load(dir)
	if err != nil {
		return nil, err
	}

	v := &Verification{Manifest: m}

	for _, file := range m.Files {
		v.check(file.Path, file.CRC64, file.Bytes, checksumFile, filepath.Join(dir, filepath.FromSlash(file.Path)))
		if file.Archive != "" {
			v.check(file.Archive, file.CRC64, file.Bytes, checksumArchive, filepath.Join(dir, filepath.FromSlash(file.Archive)))
		}
	}

	if !v.OK() {
		problems := append(append([]string{}, v.Missing...), v.Mismatched...)
		return v, fmt.Errorf("%w: %s", ErrVerifyFailed, strings.Join(problems, ", "))
	}

	log.Info().Str("build_id", m.BuildID).Int("files", len(v.Verified)).Msg("Bundle verified")

	return v, nil
}

func (v *Verification) check(name, wantSum string, wantBytes int64, sum func(string) (string, int64, error), path string) {
	got, size, err := sum(path)
	switch {
	case err != nil && isNotExist(path):
		v.Missing = append(v.Missing, name)
	case err != nil:
		log.Warn().Err(err).Str("file", name).Msg("Failed to checksum")
		v.Mismatched = append(v.Mismatched, name)
	case got != wantSum || size != wantBytes:
		v.Mismatched = append(v.Mismatched, name)
	default:
		v.Verified = append(v.Verified, name)
	}
}

func isNotExist(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
