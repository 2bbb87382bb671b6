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

type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Storage    StorageConfig  `yaml:"storage"`
	Records    RecordsConfig  `yaml:"records"`
	Database   DatabaseConfig `yaml:"database"`
	MinIO      MinIOConfig    `yaml:"minio"`
	NATS       NATSConfig     `yaml:"nats"`
	Classifier UpstreamConfig `yaml:"classifier"`
	Catalog    CatalogConfig  `yaml:"catalog"`
	Labels     []string       `yaml:"labels"`
	Logging    LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects where image blobs live. With the fs driver each
// lifecycle gets its own directory; with minio they become key prefixes.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	ReviewDir   string `yaml:"review_dir"`
	FeedbackDir string `yaml:"feedback_dir"`
}

// RecordsConfig selects the record log backend.
type RecordsConfig struct {
	Driver       string `yaml:"driver"`
	ReviewPath   string `yaml:"review_path"`
	FeedbackPath string `yaml:"feedback_path"`
	SQLitePath   string `yaml:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// NATSConfig enables lifecycle event publishing when URL is set.
type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type UpstreamConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CatalogConfig struct {
	UpstreamConfig `yaml:",inline"`
	// Category is the required TORW value; Marker must appear in NAME.
	Category string `yaml:"category"`
	Marker   string `yaml:"marker"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DriverFS       = "fs"
	DriverMinIO    = "minio"
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultLabels is the fixed label catalog served to the prediction UI.
var DefaultLabels = []string{
	"杜仲(炒)飲片(C0022-1)",
	"桑葉飲片(C0035-1)",
	"生地黃飲片(C0012-1)",
	"白朮(炒)飲片(C0013-1)",
	"白芍(炒)飲片(C0014-1)",
	"白芨飲片(C0076-1)",
	"白芷飲片(C0015-1)",
	"白茅根飲片(C0063-1)",
	"黃芩飲片(C0044-1)",
}

// Load reads config from a YAML file and applies environment variable
// overrides. A missing file is tolerated when allowMissing is set, leaving
// defaults and environment in charge.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case allowMissing && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFS:
	case DriverMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("minio.endpoint and minio.bucket are required for storage driver %q", DriverMinIO)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Records.Driver {
	case DriverCSV, DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for records driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown records driver %q", c.Records.Driver)
	}
	if c.Classifier.URL == "" {
		return fmt.Errorf("classifier.url is required")
	}
	if c.Catalog.URL == "" {
		return fmt.Errorf("catalog.url is required")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFS
	}
	if cfg.Storage.ReviewDir == "" {
		cfg.Storage.ReviewDir = "uploads/images"
	}
	if cfg.Storage.FeedbackDir == "" {
		cfg.Storage.FeedbackDir = "finetune/images"
	}
	if cfg.Records.Driver == "" {
		cfg.Records.Driver = DriverCSV
	}
	if cfg.Records.ReviewPath == "" {
		cfg.Records.ReviewPath = "uploads/history.csv"
	}
	if cfg.Records.FeedbackPath == "" {
		cfg.Records.FeedbackPath = "finetune/finetune.csv"
	}
	if cfg.Records.SQLitePath == "" {
		cfg.Records.SQLitePath = "data/records.db"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 5
	}
	if cfg.Classifier.URL == "" {
		cfg.Classifier.URL = "https://www.kutech.tw:3000/tcm_vision"
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 30 * time.Second
	}
	if cfg.Catalog.URL == "" {
		cfg.Catalog.URL = "https://www.kutech.tw:4443/api/MED_page/get_med_cloud"
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 30 * time.Second
	}
	if cfg.Catalog.Category == "" {
		cfg.Catalog.Category = "中藥"
	}
	if cfg.Catalog.Marker == "" {
		cfg.Catalog.Marker = "飲片"
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = append([]string(nil), DefaultLabels...)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TCM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TCM_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("TCM_REVIEW_IMAGE_DIR"); v != "" {
		cfg.Storage.ReviewDir = v
	}
	if v := os.Getenv("TCM_FEEDBACK_IMAGE_DIR"); v != "" {
		cfg.Storage.FeedbackDir = v
	}
	if v := os.Getenv("TCM_RECORDS_DRIVER"); v != "" {
		cfg.Records.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("TCM_REVIEW_LOG"); v != "" {
		cfg.Records.ReviewPath = v
	}
	if v := os.Getenv("TCM_FEEDBACK_LOG"); v != "" {
		cfg.Records.FeedbackPath = v
	}
	if v := os.Getenv("TCM_SQLITE_PATH"); v != "" {
		cfg.Records.SQLitePath = v
	}
	if v := os.Getenv("TCM_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TCM_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TCM_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TCM_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TCM_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TCM_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TCM_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("TCM_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("TCM_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("TCM_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("TCM_CLASSIFIER_URL"); v != "" {
		cfg.Classifier.URL = v
	}
	if v := os.Getenv("TCM_CLASSIFIER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Classifier.Timeout = d
		}
	}
	if v := os.Getenv("TCM_CATALOG_URL"); v != "" {
		cfg.Catalog.URL = v
	}
	if v := os.Getenv("TCM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
