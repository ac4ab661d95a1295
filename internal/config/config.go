package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port" validate:"required,min=1,max=65535"`
	JWTSecret        string           `json:"jwt_secret" validate:"required"`
	JWTTTLHours      int              `json:"jwt_ttl_hours" validate:"min=0"`
	LogConfig        logger.LogConfig `json:"log_config"`
	Database         DatabaseConfig   `json:"database"`
	FileStore        FileStoreConfig  `json:"file_store"`
	ImportAPI        ImportAPIConfig  `json:"import_api"`
	Cache            CacheConfig      `json:"cache"`
	Runs             RunsConfig       `json:"runs"`
	CORSAllowlist    []string         `json:"cors_allowlist"`
	RateLimitSeconds int              `json:"rate_limit_seconds" validate:"min=0"`
	Schedule         ScheduleConfig   `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host" validate:"required_without=DSN"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname" validate:"required_without=DSN"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string   `json:"type" validate:"oneof=local s3"`
	Dir  string   `json:"dir" validate:"required_if=Type local"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint     string `json:"endpoint"`
	SecretID     string `json:"secret_id"`
	SecretKey    string `json:"secret_key"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	Prefix       string `json:"prefix"`
	UsePathStyle bool   `json:"use_path_style"`
}

type ImportAPIConfig struct {
	BaseURL        string `json:"base_url" validate:"required,url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"min=0"`
}

type CacheConfig struct {
	Size       int `json:"size" validate:"min=0"`
	TTLSeconds int `json:"ttl_seconds" validate:"min=0"`
}

type RunsConfig struct {
	MaxRuns        int   `json:"max_runs" validate:"min=0"`
	IdleTTLMinutes int   `json:"idle_ttl_minutes" validate:"min=0"`
	MaxUploadBytes int64 `json:"max_upload_bytes" validate:"min=0"`
}

type ScheduleConfig struct {
	PipelineWatch         string `json:"pipeline_watch"`
	ActivityCleanup       string `json:"activity_cleanup"`
	ActivityRetentionDays int    `json:"activity_retention_days" validate:"min=0"`
}

// Load reads a JSON config file. When envFile is set it is loaded first and
// ${VAR} references in the JSON are expanded from the environment.
func Load(path string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(raw))
	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.FileStore.Type == "s3" {
		s3 := cfg.FileStore.S3
		if s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 bucket/secret_id/secret_key are required for s3 store")
		}
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	cfg.FileStore.Type = strings.ToLower(strings.TrimSpace(cfg.FileStore.Type))
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.S3.Region == "" {
		cfg.FileStore.S3.Region = "us-east-1"
	}
	if cfg.ImportAPI.TimeoutSeconds == 0 {
		cfg.ImportAPI.TimeoutSeconds = 60
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 256
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 15
	}
	if cfg.Runs.MaxRuns == 0 {
		cfg.Runs.MaxRuns = 1024
	}
	if cfg.Runs.IdleTTLMinutes == 0 {
		cfg.Runs.IdleTTLMinutes = 120
	}
	if cfg.Runs.MaxUploadBytes == 0 {
		cfg.Runs.MaxUploadBytes = 20 << 20
	}
	if cfg.RateLimitSeconds == 0 {
		cfg.RateLimitSeconds = 2
	}
	if cfg.Schedule.PipelineWatch == "" {
		cfg.Schedule.PipelineWatch = "*/5 * * * *"
	}
	if cfg.Schedule.ActivityCleanup == "" {
		cfg.Schedule.ActivityCleanup = "0 3 * * *"
	}
	if cfg.Schedule.ActivityRetentionDays == 0 {
		cfg.Schedule.ActivityRetentionDays = 90
	}
}
