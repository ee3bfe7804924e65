// Package config handles loading and parsing application configuration.
// The YAML file is located through (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, when present, is loaded into the
// environment first, so its values can both locate the file and override
// any env-tagged key.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// RosterPath is the roster file used by save/load when the caller
	// names no file, and by autoload/autosave.
	RosterPath string `yaml:"roster_path" env:"ROSTER_PATH" env-required:"true"`

	// DataDir is where file names supplied by API clients are resolved.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"."`

	// AutoLoad loads RosterPath at startup if the file exists.
	AutoLoad bool `yaml:"autoload" env:"AUTOLOAD" env-default:"false"`

	// AutoSave writes the roster to RosterPath during shutdown.
	AutoSave bool `yaml:"autosave" env:"AUTOSAVE" env-default:"false"`

	HTTPServer `yaml:"http_server"`

	Backup Backup `yaml:"backup"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// Backup lists the snapshot targets. A target is enabled when its
// identifying field (path, address, endpoint) is set.
type Backup struct {
	SQLitePath  string      `yaml:"sqlite_path" env:"BACKUP_SQLITE_PATH"`
	Redis       Redis       `yaml:"redis"`
	ObjectStore ObjectStore `yaml:"object_store"`
}

// Redis configures the redis snapshot target.
type Redis struct {
	Addr     string `yaml:"address" env:"BACKUP_REDIS_ADDR"`
	Password string `yaml:"password" env:"BACKUP_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"BACKUP_REDIS_DB" env-default:"0"`
	Key      string `yaml:"key" env:"BACKUP_REDIS_KEY" env-default:"roster:students"`
}

// ObjectStore configures the S3-compatible snapshot target.
type ObjectStore struct {
	Endpoint  string `yaml:"endpoint" env:"BACKUP_S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"BACKUP_S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"BACKUP_S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BACKUP_S3_BUCKET"`
	Region    string `yaml:"region" env:"BACKUP_S3_REGION"`
	Object    string `yaml:"object" env:"BACKUP_S3_OBJECT" env-default:"students.txt.zst"`
	Secure    bool   `yaml:"secure" env:"BACKUP_S3_SECURE" env-default:"true"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
// Like other Must functions it does not return on failure: it logs the
// problem and exits.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("cannot read .env: %s", err.Error())
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}
