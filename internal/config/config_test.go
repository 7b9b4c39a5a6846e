package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sproutling.yml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, Defaults().DBPath, cfg.DBPath)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sproutling.yml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultBalance(t *testing.T) {
	bal := Default()
	assert.Equal(t, 2.0, bal.HealthDecayPerHour)
	assert.Equal(t, 0.5, bal.SoilDecayPerHour)
	assert.Equal(t, 100, bal.XPPerLevel)
	assert.Equal(t, Effect{Health: 15, XP: 5, Soil: 0}, bal.Water)
	assert.Equal(t, Effect{Health: 10, XP: 10, Soil: 5}, bal.Feed)
	assert.Equal(t, Effect{Health: 20, XP: 15, Soil: 10}, bal.Fertilize)
	assert.Equal(t, 100, bal.StartHealth)
	assert.Equal(t, 50, bal.StartSoil)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HEALTH_DECAY_PER_HOUR", "4.5")
	t.Setenv("XP_PER_LEVEL", "250")
	t.Setenv("START_SOIL", "not-a-number")

	bal := FromEnv()
	assert.Equal(t, 4.5, bal.HealthDecayPerHour)
	assert.Equal(t, 250, bal.XPPerLevel)
	assert.Equal(t, Default().StartSoil, bal.StartSoil, "bad values fall back to default")
}
