package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/csrpulse/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Reports  ReportsConfig  `toml:"reports"`
	Archive  ArchiveConfig  `toml:"archive"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	HTTPBind       string `toml:"http_bind"`
	APIEndpoint    string `toml:"api_endpoint"`
	MCPEndpoint    string `toml:"mcp_endpoint"`
	RequestTimeout string `toml:"request_timeout"` // Go duration, "0" disables
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ReportsConfig struct {
	DefaultType      string `toml:"default_type"`
	TrendConcurrency int    `toml:"trend_concurrency"`
}

// ArchiveConfig enables copying every rendered export to S3.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	Bucket  string `toml:"bucket"`
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
	Prefix  string `toml:"prefix"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			HTTPBind:       "127.0.0.1:8080",
			APIEndpoint:    "/api/v1",
			MCPEndpoint:    "/mcp",
			RequestTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".csrpulse/log",
			},
		},
		Reports: ReportsConfig{
			DefaultType:      string(domain.ReportTypeMonthly),
			TrendConcurrency: 4,
		},
		Archive: ArchiveConfig{
			Prefix: "exports/",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := c.Server.Timeout(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	api := "/" + strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcp := "/" + strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if api == mcp {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", api)
	}

	if _, err := c.Logging.ParsedLevel(); err != nil {
		return err
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when logging.dev_file.enabled is true")
	}

	if domain.NormalizeReportType(domain.ReportType(c.Reports.DefaultType)) == "" {
		return fmt.Errorf("invalid reports.default_type: %q", c.Reports.DefaultType)
	}
	if c.Reports.TrendConcurrency < 1 {
		return fmt.Errorf("reports.trend_concurrency must be >= 1, got %d", c.Reports.TrendConcurrency)
	}

	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive.bucket is required when archive.enabled is true")
	}

	return nil
}

// Timeout parses request_timeout. Empty or "0" yields zero, meaning no limit.
func (s ServerConfig) Timeout() (time.Duration, error) {
	raw := strings.TrimSpace(s.RequestTimeout)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid server.request_timeout %q: %w", s.RequestTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("server.request_timeout must be >= 0, got %s", d)
	}
	return d, nil
}

// ParsedLevel maps the configured level name onto a charm log level.
func (l LoggingConfig) ParsedLevel() (log.Level, error) {
	raw := strings.TrimSpace(strings.ToLower(l.Level))
	if raw == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid logging.level %q: %w", l.Level, err)
	}
	return level, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
