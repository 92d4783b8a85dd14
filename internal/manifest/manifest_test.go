package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/extbundle/internal/buildconfig"
)

func writeOutputs(t *testing.T, dir string) (*buildconfig.Config, []string) {
	t.Helper()

	cfg := buildconfig.Default(dir)
	outDir := cfg.OutputDir()
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "assets"), 0750))

	bundle := filepath.Join(outDir, "extension.js")
	sourceMap := filepath.Join(outDir, "extension.js.map")
	asset := filepath.Join(outDir, "assets", "logo.svg")

	require.NoError(t, os.WriteFile(bundle, []byte(strings.Repeat("module.exports = {};\n", 200)), 0600))
	require.NoError(t, os.WriteFile(sourceMap, []byte(`{"version":3,"sources":[],"mappings":""}`), 0600))
	require.NoError(t, os.WriteFile(asset, []byte("<svg/>"), 0600))

	return cfg, []string{sourceMap, bundle, asset}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	cfg, outputs := writeOutputs(t, dir)

	m, err := Create(context.Background(), cfg, outputs, Options{})
	require.NoError(t, err)

	id, err := uuid.Parse(m.BuildID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	fingerprint, err := cfg.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fingerprint, m.ConfigFingerprint)
	assert.Equal(t, "production", m.Mode)
	assert.Equal(t, "extension.js", m.Bundle)
	assert.False(t, m.CreatedAt.IsZero())

	require.Len(t, m.Files, 3)
	assert.Equal(t, "assets/logo.svg", m.Files[0].Path)
	assert.Equal(t, "extension.js", m.Files[1].Path)
	assert.Equal(t, "extension.js.map", m.Files[2].Path)
	assert.Equal(t, int64(6), m.Files[0].Bytes)
	assert.Len(t, m.Files[1].CRC64, 16)
	assert.Empty(t, m.Files[1].Archive)

	loaded, err := Load(cfg.OutputDir())
	require.NoError(t, err)
	assert.Equal(t, m.BuildID, loaded.BuildID)
	assert.Equal(t, m.Files, loaded.Files)
}

func TestCreate_SkipsOutsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	cfg, outputs := writeOutputs(t, dir)

	stray := filepath.Join(dir, "stray.js")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0600))

	m, err := Create(context.Background(), cfg, append(outputs, stray), Options{})
	require.NoError(t, err)
	assert.Len(t, m.Files, 3)
}

func TestCreate_Compress(t *testing.T) {
	dir := t.TempDir()
	cfg, outputs := writeOutputs(t, dir)

	m, err := Create(context.Background(), cfg, outputs, Options{Compress: true})
	require.NoError(t, err)

	for _, f := range m.Files {
		assert.Equal(t, f.Path+".zst", f.Archive)
		assert.FileExists(t, filepath.Join(cfg.OutputDir(), filepath.FromSlash(f.Archive)))
		assert.Positive(t, f.ArchiveBytes)
	}

	// the repetitive bundle compresses well
	assert.Less(t, m.Files[1].ArchiveBytes, m.Files[1].Bytes)

	sum, size, err := checksumArchive(filepath.Join(cfg.OutputDir(), "extension.js.zst"))
	require.NoError(t, err)
	assert.Equal(t, m.Files[1].CRC64, sum)
	assert.Equal(t, m.Files[1].Bytes, size)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name           string
		compress       bool
		mutate         func(t *testing.T, outDir string)
		wantErr        bool
		wantMissing    []string
		wantMismatched []string
	}{
		{
			name:   "untouched",
			mutate: func(t *testing.T, outDir string) {},
		},
		{
			name:     "untouched with archives",
			compress: true,
			mutate:   func(t *testing.T, outDir string) {},
		},
		{
			name: "modified bundle",
			mutate: func(t *testing.T, outDir string) {
				require.NoError(t, os.WriteFile(filepath.Join(outDir, "extension.js"), []byte("tampered"), 0600))
			},
			wantErr:        true,
			wantMismatched: []string{"extension.js"},
		},
		{
			name: "same size different content",
			mutate: func(t *testing.T, outDir string) {
				require.NoError(t, os.WriteFile(filepath.Join(outDir, "assets", "logo.svg"), []byte("<svg!>"), 0600))
			},
			wantErr:        true,
			wantMismatched: []string{"assets/logo.svg"},
		},
		{
			name: "missing source map",
			mutate: func(t *testing.T, outDir string) {
				require.NoError(t, os.Remove(filepath.Join(outDir, "extension.js.map")))
			},
			wantErr:     true,
			wantMissing: []string{"extension.js.map"},
		},
		{
			name:     "corrupt archive",
			compress: true,
			mutate: func(t *testing.T, outDir string) {
				require.NoError(t, os.WriteFile(filepath.Join(outDir, "extension.js.zst"), []byte("not zstd"), 0600))
			},
			wantErr:        true,
			wantMismatched: []string{"extension.js.zst"},
		},
		{
			name:     "missing archive",
			compress: true,
			mutate: func(t *testing.T, outDir string) {
				require.NoError(t, os.Remove(filepath.Join(outDir, "assets", "logo.svg.zst")))
			},
			wantErr:     true,
			wantMissing: []string{"assets/logo.svg.zst"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg, outputs := writeOutputs(t, dir)

			_, err := Create(context.Background(), cfg, outputs, Options{Compress: tt.compress})
			require.NoError(t, err)

			tt.mutate(t, cfg.OutputDir())

			v, err := Verify(cfg.OutputDir())
			require.NotNil(t, v)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrVerifyFailed)
				assert.False(t, v.OK())
			} else {
				require.NoError(t, err)
				assert.True(t, v.OK())
			}
			assert.Equal(t, tt.wantMissing, v.Missing)
			assert.Equal(t, tt.wantMismatched, v.Mismatched)
		})
	}
}

func TestVerify_NoManifest(t *testing.T) {
	_, err := Verify(t.TempDir())
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"version": 99}`), 0600))

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
