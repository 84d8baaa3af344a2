package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdfgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_ReadsEveryKey(t *testing.T) {
	path := writeConfig(t, `
data_path: [/opt/pdfsets, s3://pdfs/sets]
interpolator: LogBicubic
extrapolator: nearest
log_level: debug
workers: 4
object_store:
  endpoint: localhost:9000
  access_key: key
  secret_key: secret
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/pdfsets", "s3://pdfs/sets"}, cfg.DataPath)
	assert.Equal(t, "LogBicubic", cfg.Interpolator)
	assert.Equal(t, "nearest", cfg.Extrapolator)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	require.NotNil(t, cfg.ObjectStore)
	assert.Equal(t, "localhost:9000", cfg.ObjectStore.Endpoint)
	assert.False(t, cfg.ObjectStore.Secure)
}

func TestLoadConfig_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_UnknownKeyIsAnError(t *testing.T) {
	// GIVEN a config with a misspelled key
	path := writeConfig(t, "interpolater: linear\n")

	// WHEN it is loaded
	_, err := LoadConfig(path)

	// THEN strict parsing rejects it instead of silently using the default
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interpolater")
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]Config{
		"zero workers":          {Workers: 0},
		"unknown interpolator":  {Workers: 1, Interpolator: "spline"},
		"unknown extrapolator":  {Workers: 1, Extrapolator: "mirror"},
		"object store endpoint": {Workers: 1, ObjectStore: &filecache.ObjectStoreConfig{AccessKey: "k"}},
	}
	for name, cfg := range tests {
		assert.Error(t, cfg.Validate(), name)
	}
	assert.NoError(t, Config{Workers: 2, Interpolator: "CUBIC", Extrapolator: "ErrorScaled"}.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
