// internal/config/config.go
//
// This package handles configuration and the .meetpoint directory structure.
// Every project directory meetpoint runs in gets a .meetpoint/ folder holding
// the config file, the amenity catalog and the session log.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".meetpoint"

	// APIKeyEnv overrides tiles.api_key.
	APIKeyEnv = "MAPTILER_API_KEY"
	// CatalogEnv overrides engine.catalog.
	CatalogEnv = "MEETPOINT_CATALOG"
	// WalkingSpeedEnv overrides engine.walking_speed_kmh.
	WalkingSpeedEnv = "MEETPOINT_WALKING_SPEED_KMH"
	// BridgeEnabledEnv, BridgeHostEnv and BridgePortEnv override bridge.*.
	BridgeEnabledEnv = "MEETPOINT_BRIDGE_ENABLED"
	BridgeHostEnv    = "MEETPOINT_BRIDGE_HOST"
	BridgePortEnv    = "MEETPOINT_BRIDGE_PORT"

	catalogFile            = "amenities.geojson"
	defaultWalkingSpeedKmh = 5.0
	defaultBridgeHost      = "127.0.0.1"
	defaultBridgePort      = 8766
)

var defaultCatalog = filepath.Join(Dir, "data", catalogFile)

const defaultProjectConfigYAML = `# meetpoint project configuration
version: 1

# Map tiles. The key can also come from MAPTILER_API_KEY (or a .env file),
# or be entered from the title screen with "k".
tiles:
  api_key: ""

# Travel-time engine. catalog is a GeoJSON FeatureCollection of amenities
# (features with an "amenity" or "shop" property).
engine:
  catalog: .meetpoint/data/amenities.geojson
  walking_speed_kmh: 5

# Read-only inspection server for the current session. Port 0 picks a free port.
bridge:
  enabled: false
  host: 127.0.0.1
  port: 8766
`

// TilesConfig holds settings for the map tile service.
type TilesConfig struct {
	APIKey string `yaml:"api_key"`
}

// EngineConfig selects the catalog and pace used by the walking engine.
type EngineConfig struct {
	Catalog         string  `yaml:"catalog"`
	WalkingSpeedKmh float64 `yaml:"walking_speed_kmh"`
}

// BridgeConfig controls the read-only session inspector.
type BridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Address returns the bind address in host:port form.
func (b BridgeConfig) Address() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// ProjectConfig models .meetpoint/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	Tiles   TilesConfig  `yaml:"tiles"`
	Engine  EngineConfig `yaml:"engine"`
	Bridge  BridgeConfig `yaml:"bridge"`
}

// Config holds the runtime configuration for meetpoint.
type Config struct {
	// ProjectDir is the directory where the user ran `meetpoint` from
	ProjectDir string

	// StateDir is ProjectDir/.meetpoint
	StateDir string

	// Project is the effective configuration: file values with environment
	// overrides applied and paths resolved against ProjectDir.
	Project ProjectConfig

	// file is what config.yaml holds. Saves write this, never Project, so
	// environment overrides and resolved paths stay out of the file.
	file ProjectConfig
}

// InitDir creates the .meetpoint directory structure in the given project
// directory.
//
// Structure created:
// .meetpoint/
// ├── config.yaml
// ├── data/   <- amenity catalogs
// └── logs/   <- session logbook
func InitDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, Dir)
	for _, dir := range []string{
		filepath.Join(stateDir, "data"),
		filepath.Join(stateDir, "logs"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads .env and .meetpoint/config.yaml for projectDir, then
// applies environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(projectDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, Dir),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	cfg.Project.normalize(cfg.ProjectDir)
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LogPath returns the session logbook file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// DataDir returns the directory catalogs are kept in.
func (c *Config) DataDir() string {
	return filepath.Join(c.StateDir, "data")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// APIKey returns the tile-service key.
func (c *Config) APIKey() string {
	return c.Project.Tiles.APIKey
}

// CatalogPath returns the absolute path of the amenity catalog.
func (c *Config) CatalogPath() string {
	return c.Project.Engine.Catalog
}

// WalkingSpeedKmh returns the configured walking pace.
func (c *Config) WalkingSpeedKmh() float64 {
	return c.Project.Engine.WalkingSpeedKmh
}

// Bridge returns the effective inspector settings.
func (c *Config) Bridge() BridgeConfig {
	return c.Project.Bridge
}

// SetAPIKey stores a tile key in .meetpoint/config.yaml and makes it the
// effective key. Other settings are written back exactly as the file had them.
func (c *Config) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("config: api key is required")
	}
	next := c.file
	next.Tiles.APIKey = key
	if err := c.saveProjectConfig(next); err != nil {
		return err
	}
	c.file = next
	c.Project.Tiles.APIKey = key
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
		parsed.applyDefaults()
		if err := parsed.validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	c.file = parsed
	c.Project = parsed
	c.Project.normalize(c.ProjectDir)
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.Project.Tiles.APIKey = key
	}
	if catalog := strings.TrimSpace(os.Getenv(CatalogEnv)); catalog != "" {
		c.Project.Engine.Catalog = catalog
	}
	if speed := strings.TrimSpace(os.Getenv(WalkingSpeedEnv)); speed != "" {
		if parsed, err := strconv.ParseFloat(speed, 64); err == nil && parsed > 0 {
			c.Project.Engine.WalkingSpeedKmh = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv(BridgeEnabledEnv)); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.Project.Bridge.Enabled = enabled
		}
	}
	if host := strings.TrimSpace(os.Getenv(BridgeHostEnv)); host != "" {
		c.Project.Bridge.Host = host
	}
	if port := strings.TrimSpace(os.Getenv(BridgePortEnv)); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed >= 0 && parsed <= 65535 {
			c.Project.Bridge.Port = parsed
		}
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Engine: EngineConfig{
			Catalog:         defaultCatalog,
			WalkingSpeedKmh: defaultWalkingSpeedKmh,
		},
		Bridge: BridgeConfig{
			Host: defaultBridgeHost,
			Port: defaultBridgePort,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Engine.Catalog) == "" {
		pc.Engine.Catalog = defaultCatalog
	}
	if pc.Engine.WalkingSpeedKmh == 0 {
		pc.Engine.WalkingSpeedKmh = defaultWalkingSpeedKmh
	}
	if strings.TrimSpace(pc.Bridge.Host) == "" {
		pc.Bridge.Host = defaultBridgeHost
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Tiles.APIKey = strings.TrimSpace(pc.Tiles.APIKey)
	pc.Engine.Catalog = resolvePath(base, pc.Engine.Catalog)
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Engine.WalkingSpeedKmh < 0 {
		return fmt.Errorf("engine.walking_speed_kmh must be positive")
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig(pc ProjectConfig) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := pc.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(pc)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
