// Package config loads server configuration from an optional TOML file
// with environment variable overrides for deployment settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	API      API      `toml:"api"`
	Cache    Cache    `toml:"cache"`
	Batch    Batch    `toml:"batch"`
	View     View     `toml:"view"`
}

type Server struct {
	Port        string   `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type Database struct {
	Path string `toml:"path"`
}

type API struct {
	BaseURL string `toml:"base_url"`
	Key     string `toml:"key"`
	Timeout string `toml:"timeout"`
}

type Cache struct {
	TTLHours int `toml:"ttl_hours"`
}

type Batch struct {
	Size     int      `toml:"size"`
	DelayMS  int      `toml:"delay_ms"`
	Precache []string `toml:"precache"`
}

type View struct {
	PageSize int `toml:"page_size"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: Database{Path: "tracker.db"},
		API: API{
			BaseURL: "https://api.pokemontcg.io/v2",
			Timeout: "10s",
		},
		Cache: Cache{TTLHours: 24},
		Batch: Batch{Size: 10, DelayMS: 100},
		View:  View{PageSize: 20},
	}
}

// Load reads the TOML file at path, layering it over the defaults. A
// missing file is not an error; environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus env only.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("POKEMON_TCG_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.CORSOrigins = origins
	}
}

// APITimeout parses the configured API timeout, falling back to 10s on
// a bad value.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// CacheTTL returns the catalog cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// BatchDelay returns the inter-batch pause as a duration.
func (c *Config) BatchDelay() time.Duration {
	if c.Batch.DelayMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.Batch.DelayMS) * time.Millisecond
}
