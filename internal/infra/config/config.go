package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by the storage and metadata sections.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendS3       = "s3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Upload   UploadConfig   `yaml:"upload"`
	Storage  StorageConfig  `yaml:"storage"`
	Metadata MetadataConfig `yaml:"metadata"`
	Cache    CacheConfig    `yaml:"cache"`
	Static   StaticConfig   `yaml:"static"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the upload limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// UploadConfig bounds uploads and builds download links.
type UploadConfig struct {
	MaxBodyBytes     int64  `yaml:"maxBodyBytes"`
	DefaultURLPrefix string `yaml:"defaultUrlPrefix"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend   string   `yaml:"backend"`
	ChunkSize int      `yaml:"chunkSize"`
	S3        S3Config `yaml:"s3"`
}

// S3Config contains S3-compatible bucket settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	PartSize  uint64 `yaml:"partSize"`
}

// MetadataConfig selects and configures the metadata store.
type MetadataConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls the post record cache.
type CacheConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

// StaticConfig points at the bundled frontend served for unmatched routes.
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("UPLOAD_MAX_BODY_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBodyBytes = parsed
		}
	}
	if v := os.Getenv("UPLOAD_DEFAULT_URL_PREFIX"); v != "" {
		cfg.Upload.DefaultURLPrefix = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STORAGE_CHUNK_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.ChunkSize = parsed
		}
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.Storage.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.Storage.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("METADATA_BACKEND"); v != "" {
		cfg.Metadata.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Metadata.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Metadata.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Metadata.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Metadata.SQLite.Path = v
	}
	if v := os.Getenv("CACHE_VALKEY_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("CACHE_VALKEY_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.Valkey.TTL = parsed
		}
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.Static.Dir = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3030",
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		Upload: UploadConfig{
			MaxBodyBytes:     12_000_000,
			DefaultURLPrefix: "https://i.kalkafox.dev",
		},
		Storage: StorageConfig{
			Backend:   BackendMemory,
			ChunkSize: 255 * 1024,
			S3: S3Config{
				Region: "auto",
				Prefix: "posts/",
			},
		},
		Metadata: MetadataConfig{
			Backend: BackendMemory,
			Postgres: PostgresConfig{
				MaxConns: 8,
				MinConns: 0,
			},
			SQLite: SQLiteConfig{
				Path: "data/blobdrop.db",
			},
		},
		Cache: CacheConfig{
			Valkey: ValkeyConfig{
				Prefix: "blobdrop",
				TTL:    24 * time.Hour,
			},
		},
		Static: StaticConfig{
			Dir: "frontend/dist",
		},
	}
}

// UsesPostgres reports whether any store needs a Postgres pool.
func (c *Config) UsesPostgres() bool {
	return c.Metadata.Backend == BackendPostgres || c.Storage.Backend == BackendPostgres
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Upload.MaxBodyBytes <= 0 {
		return errors.New("upload.maxBodyBytes must be positive")
	}
	if strings.TrimSpace(c.Upload.DefaultURLPrefix) == "" {
		return errors.New("upload.defaultUrlPrefix cannot be empty")
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres:
	case BackendS3:
		if strings.TrimSpace(c.Storage.S3.Endpoint) == "" || strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return errors.New("storage.s3.endpoint and storage.s3.bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.Storage.ChunkSize < 0 {
		return errors.New("storage.chunkSize cannot be negative")
	}
	switch c.Metadata.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSQLite:
		if strings.TrimSpace(c.Metadata.SQLite.Path) == "" {
			return errors.New("metadata.sqlite.path cannot be empty for the sqlite backend")
		}
	default:
		return fmt.Errorf("metadata.backend %q is not supported", c.Metadata.Backend)
	}
	if c.UsesPostgres() && strings.TrimSpace(c.Metadata.Postgres.DSN) == "" {
		return errors.New("metadata.postgres.dsn (DATABASE_URL) is required when a postgres backend is selected")
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when the valkey cache is enabled")
	}
	if c.Cache.Valkey.TTL < 0 {
		return errors.New("cache.valkey.ttl cannot be negative")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
