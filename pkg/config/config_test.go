package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSubstitutesEnv(t *testing.T) {
	t.Setenv("TABULA_TEST_BUCKET", "rates-bucket")
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: ${TABULA_TEST_BUCKET}\nwrite:\n  max_decimal: 5\n"), 0o600))

	cfg := NewConfig("x")
	require.NoError(t, Load(path, cfg))
	assert.Equal(t, "rates-bucket", cfg.Name)
	assert.Equal(t, 5, cfg.Write.MaxDecimal)
	assert.Equal(t, "&", cfg.Write.EmptyChar)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	orig := NewConfig("rates")
	orig.Read.IgnoreLines = []int{2, 7}
	require.NoError(t, Save(path, orig))

	loaded := &Config{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, orig, loaded)
}

func TestSubstituteEnvVarsUnterminated(t *testing.T) {
	assert.Equal(t, "a ${B", substituteEnvVars("a ${B"))
}

func TestLoadWithViperLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: rates
write:
  spacing: "  "
  flush_every: 10
pipeline:
  timeout: 2m
`), 0o600))
	t.Setenv("TABULA_WRITE_MAX_DECIMAL", "7")

	cfg, err := LoadWithViper(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "rates", cfg.Name)
	assert.Equal(t, "  ", cfg.Write.Spacing)
	assert.Equal(t, 10, cfg.Write.FlushEvery)
	assert.Equal(t, 7, cfg.Write.MaxDecimal)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.Timeout)
	assert.Equal(t, "&", cfg.Write.EmptyChar)
}

func TestLoadWithViperRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  compression_level: extreme\n"), 0o600))

	_, err := LoadWithViper(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compression_level")
}

func TestValidate(t *testing.T) {
	cfg := NewConfig("rates")
	require.NoError(t, cfg.Validate())

	cfg.Read.IgnoreLines = []int{-1}
	assert.Error(t, cfg.Validate())

	cfg = NewConfig("")
	assert.EqualError(t, cfg.Validate(), "name is required")
}
