package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthgen.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dir, "data", "history.duckdb"), cfg.Storage.HistoryDatabase)
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthgen.config")

	cfg := DefaultConfig()
	cfg.Server.Port = 6100
	cfg.Generation.MaxRecords = 50
	cfg.Storage.AllowedFileTypes = "json, .TXT ,"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6100, loaded.Server.Port)
	assert.Equal(t, 50, loaded.Generation.MaxRecords)
	assert.Equal(t, []string{".json", ".txt"}, loaded.AllowedExtensions())
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synthgen.config")
	xmlDoc := `<SyntheticDataServer><Server><Port>7000</Port></Server></SyntheticDataServer>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Generation.MaxRecords)
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "8123")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(dir, "synthgen.config"))
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dataDir, "profiles"), cfg.Storage.ProfilesDirectory)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.config")

	require.NoError(t, os.WriteFile(path, []byte("<not-closed"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Generation.DefaultRecords = 5000
	require.NoError(t, cfg.Save(path))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "DefaultRecords")
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 168*time.Hour, cfg.RunRetention())
	assert.Equal(t, 30*time.Minute, cfg.CleanupInterval())

	cfg.Retention.CleanupIntervalMinutes = 0
	assert.Equal(t, 30*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, "0.0.0.0:5000", cfg.GetServerAddr())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "synthgen.config"))
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirectories())

	for _, d := range []string{cfg.GetDataDir(), cfg.GetUploadDir(), cfg.Storage.ProfilesDirectory} {
		st, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	}
}
