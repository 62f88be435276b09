// Package config provides environment-driven configuration for the
// collision space daemon.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// =============================================================================
// COLLISION SPACE CONFIGURATION
// =============================================================================

// SpaceConfig holds the settings of the collision space.
type SpaceConfig struct {
	BoundingVolume string // BVH node volume: AABB, OBB, RSS, OBBRSS, kDOP16, kDOP18, kDOP24, kIOS
	GeometryGroup  string // geometry group applied by default, empty for default geometries
	MeshCells      int    // marching cubes resolution for link bounding meshes
	Index          string // environment manager index: aabbtree or rtree
}

// DefaultSpace returns the default collision space configuration.
func DefaultSpace() SpaceConfig {
	return SpaceConfig{
		BoundingVolume: "OBB",
		MeshCells:      32,
		Index:          "aabbtree",
	}
}

// SpaceFromEnv returns space configuration with environment variable
// overrides.
func SpaceFromEnv() SpaceConfig {
	cfg := DefaultSpace()

	if bv := os.Getenv("CSPACE_BV"); bv != "" {
		cfg.BoundingVolume = bv
	}
	if g, ok := os.LookupEnv("CSPACE_GEOMETRY_GROUP"); ok {
		cfg.GeometryGroup = g
	}
	if c := getEnvInt("CSPACE_MESH_CELLS", 0); c > 0 {
		cfg.MeshCells = c
	}
	if idx := os.Getenv("CSPACE_INDEX"); idx != "" {
		cfg.Index = idx
	}

	return cfg
}

// Validate reports settings the daemon cannot start with.
func (c SpaceConfig) Validate() error {
	if c.MeshCells <= 0 {
		return errors.Errorf("mesh cells must be positive, got %d", c.MeshCells)
	}
	switch c.Index {
	case "aabbtree", "rtree":
	default:
		return errors.Errorf("unknown index %q", c.Index)
	}
	return nil
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds debug server and animation loop settings.
type ServerConfig struct {
	Port      int
	SyncHz    float64 // scene update and synchronization rate
	EventRate float64 // websocket events per second per client
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      8089,
		SyncHz:    30,
		EventRate: 10,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("CSPACE_PORT", 0); p > 0 {
		cfg.Port = p
	}
	if hz := getEnvFloat("CSPACE_SYNC_HZ", 0); hz > 0 {
		cfg.SyncHz = hz
	}
	if r := getEnvFloat("CSPACE_EVENT_RATE", 0); r > 0 {
		cfg.EventRate = r
	}

	return cfg
}

// =============================================================================
// COMBINED CONFIGURATION
// =============================================================================

// AppConfig holds all configuration.
type AppConfig struct {
	Space  SpaceConfig
	Server ServerConfig
}

// Load returns the configuration with environment overrides applied.
func Load() AppConfig {
	return AppConfig{
		Space:  SpaceFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
