package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c := &Config{ProjectDir: projectDir, StateDir: filepath.Join(projectDir, Dir)}
	require.NoError(t, c.loadProjectConfig())

	assert.Equal(t, 1, c.Project.Version)
	assert.Equal(t, filepath.Join(projectDir, ".meetpoint", "data", "amenities.geojson"), c.CatalogPath())
	assert.Equal(t, defaultWalkingSpeedKmh, c.WalkingSpeedKmh())
	assert.Equal(t, BridgeConfig{Host: "127.0.0.1", Port: 8766}, c.Bridge())
}

func TestInitDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	for _, sub := range []string{"data", "logs"} {
		info, err := os.Stat(filepath.Join(projectDir, Dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), sub)
	}
	t.Setenv(APIKeyEnv, "")
	cfg, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey())
	assert.False(t, cfg.Bridge().Enabled, "bridge must be opt-in")
	assert.Equal(t, 8766, cfg.Bridge().Port)
	assert.Equal(t, filepath.Join(cfg.DataDir(), "amenities.geojson"), cfg.CatalogPath())

	// A second init must keep user edits.
	custom := []byte("version: 1\ntiles:\n  api_key: abc\n")
	require.NoError(t, os.WriteFile(cfg.ProjectConfigPath(), custom, 0o644))
	require.NoError(t, InitDir(projectDir))
	data, err := os.ReadFile(cfg.ProjectConfigPath())
	require.NoError(t, err)
	assert.Equal(t, string(custom), string(data))
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
tiles:
  api_key: "  file-key  "
engine:
  catalog: maps/town.geojson
  walking_speed_kmh: 4.5
bridge:
  enabled: true
  port: 0
`)
	c := &Config{ProjectDir: projectDir, StateDir: filepath.Join(projectDir, Dir)}
	require.NoError(t, c.loadProjectConfig())

	assert.Equal(t, "file-key", c.APIKey())
	assert.Equal(t, filepath.Join(projectDir, "maps", "town.geojson"), c.CatalogPath())
	assert.Equal(t, 4.5, c.WalkingSpeedKmh())
	assert.True(t, c.Bridge().Enabled)
	assert.Equal(t, 0, c.Bridge().Port, "an explicit port 0 asks for a free port")
	assert.Equal(t, "127.0.0.1:0", c.Bridge().Address())
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "version: 1\nbridge:\n  port: 70000\n")
	c := &Config{ProjectDir: projectDir, StateDir: filepath.Join(projectDir, Dir)}
	assert.Error(t, c.loadProjectConfig())
}

func TestEnvOverridesAndDotEnv(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".env"), []byte("MEETPOINT_WALKING_SPEED_KMH=6\n"), 0o644))
	t.Setenv(APIKeyEnv, "env-key")
	t.Setenv(CatalogEnv, "other.geojson")
	t.Setenv(WalkingSpeedEnv, "")
	os.Unsetenv(WalkingSpeedEnv)
	t.Setenv(BridgeEnabledEnv, "true")
	t.Setenv(BridgeHostEnv, "0.0.0.0")
	t.Setenv(BridgePortEnv, "9001")

	cfg, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey())
	assert.Equal(t, filepath.Join(projectDir, "other.geojson"), cfg.CatalogPath())
	assert.Equal(t, 6.0, cfg.WalkingSpeedKmh())
	assert.Equal(t, BridgeConfig{Enabled: true, Host: "0.0.0.0", Port: 9001}, cfg.Bridge())
}

func TestInvalidBridgeEnvIsIgnored(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	t.Setenv(BridgeEnabledEnv, "maybe")
	t.Setenv(BridgePortEnv, "99999")

	cfg, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.False(t, cfg.Bridge().Enabled)
	assert.Equal(t, 8766, cfg.Bridge().Port)
}

func TestSetAPIKeyPersists(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	t.Setenv(APIKeyEnv, "")
	cfg, err := NewConfig(projectDir)
	require.NoError(t, err)

	assert.Error(t, cfg.SetAPIKey("  "))
	require.NoError(t, cfg.SetAPIKey("saved-key"))
	assert.Equal(t, "saved-key", cfg.APIKey())

	reloaded, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "saved-key", reloaded.APIKey())
}

func TestSetAPIKeyKeepsOverridesOutOfFile(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
engine:
  catalog: maps/town.geojson
  walking_speed_kmh: 4
`)
	t.Setenv(APIKeyEnv, "")
	t.Setenv(CatalogEnv, filepath.Join(t.TempDir(), "elsewhere.geojson"))
	t.Setenv(WalkingSpeedEnv, "7")
	t.Setenv(BridgeEnabledEnv, "true")

	cfg, err := NewConfig(projectDir)
	require.NoError(t, err)
	require.NoError(t, cfg.SetAPIKey("typed-key"))
	assert.Equal(t, 7.0, cfg.WalkingSpeedKmh(), "effective config keeps its overrides")

	data, err := os.ReadFile(cfg.ProjectConfigPath())
	require.NoError(t, err)
	var saved ProjectConfig
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "typed-key", saved.Tiles.APIKey)
	assert.Equal(t, "maps/town.geojson", saved.Engine.Catalog)
	assert.Equal(t, 4.0, saved.Engine.WalkingSpeedKmh)
	assert.False(t, saved.Bridge.Enabled)
}

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	stateDir := filepath.Join(projectDir, Dir)
	require.NoError(t, os.MkdirAll(stateDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(strings.TrimSpace(body)+"\n"), 0o644))
}
