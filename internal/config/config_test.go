package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericlevine/matrixscan"
)

// isolate runs the test in an empty directory with no user config visible.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Empty(t, l.FileUsed())
}

func TestLoadSearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "xdg", "qrscan", "qrscan.yaml"), `
log_level: debug
decode:
  try_harder: true
  formats: [qr-code]
  allowed_lengths: [4, 8]
batch:
  workers: 3
`)

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Decode.TryHarder)
	assert.Equal(t, []int{4, 8}, cfg.Decode.AllowedLengths)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, "hybrid", cfg.Decode.Binarizer)
	assert.Equal(t, filepath.Join(dir, "xdg", "qrscan", "qrscan.yaml"), l.FileUsed())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "log_level: warn\ndecode:\n  character_set: ISO-8859-1\n")
	t.Setenv("QRSCAN_LOG_LEVEL", "error")
	t.Setenv("QRSCAN_DECODE_PURE_BARCODE", "true")

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.Decode.PureBarcode)
	assert.Equal(t, "ISO-8859-1", cfg.Decode.CharacterSet)
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("QRSCAN_BATCH_WORKERS", "2")

	l := NewLoader()
	l.Viper().Set("batch.workers", 6)
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Batch.Workers)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := NewLoader().Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "decode: [unterminated\n")
	_, err = NewLoader().Load(bad)
	assert.ErrorContains(t, err, "error reading config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "log_level: loud\n")
	_, err = NewLoader().Load(invalid)
	assert.ErrorContains(t, err, "log_level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"format", func(c *Config) { c.Decode.Formats = []string{"EAN_13"} }, "decode.formats"},
		{"charset", func(c *Config) { c.Decode.CharacterSet = "no-such-charset" }, "decode.character_set"},
		{"length", func(c *Config) { c.Decode.AllowedLengths = []int{0} }, "decode.allowed_lengths"},
		{"binarizer", func(c *Config) { c.Decode.Binarizer = "otsu" }, "decode.binarizer"},
		{"max side", func(c *Config) { c.Decode.MaxSide = -1 }, "decode.max_side"},
		{"workers", func(c *Config) { c.Batch.Workers = -2 }, "batch.workers"},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "x"
	cfg.Batch.Workers = -1
	err := cfg.Validate()
	assert.ErrorContains(t, err, "log_level")
	assert.ErrorContains(t, err, "batch.workers")
}

func TestHints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Decode.Formats = []string{"qr", "QR_CODE", "data-matrix"}
	cfg.Decode.TryHarder = true
	cfg.Decode.CharacterSet = "Shift_JIS"
	cfg.Decode.AllowedLengths = []int{5}

	h, err := cfg.Hints()
	require.NoError(t, err)
	assert.Equal(t, &matrixscan.Hints{
		PossibleFormats: []matrixscan.Format{matrixscan.FormatQRCode, matrixscan.FormatDataMatrix},
		TryHarder:       true,
		CharacterSet:    "Shift_JIS",
		AllowedLengths:  []int{5},
	}, h)

	cfg.Decode.Formats = []string{"aztec"}
	_, err = cfg.Hints()
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.File = "/tmp/qrscan.prom"
	cfg.Decode.AllowedLengths = []int{12}
	out, err := cfg.Dump()
	require.NoError(t, err)
	assert.Contains(t, string(out), "file: /tmp/qrscan.prom")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, *cfg, back)
}
