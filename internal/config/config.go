package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all environment-driven settings for the pipeline.
type Config struct {
	DataDir          string
	OutDir           string
	DBPath           string
	Watch            bool
	SeedIfMissing    bool
	WorkerCount      int
	SourceTimeoutSec int
	StrictConfig     bool
}

type fileConfig struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	OutDir        string `yaml:"out_dir" json:"out_dir"`
	DBPath        string `yaml:"db_path" json:"db_path"`
	Watch         *bool  `yaml:"watch" json:"watch"`
	SeedIfMissing *bool  `yaml:"seed_if_missing" json:"seed_if_missing"`
	WorkerCount   *int   `yaml:"worker_count" json:"worker_count"`
}

const (
	defaultDataDir          = "data"
	defaultOutDir           = "out"
	defaultDBFile           = "campus_energy.db"
	defaultWorkerCount      = 4
	maxWorkerCount          = 64
	defaultSourceTimeoutSec = 30
)

// Load reads configuration from the environment, an optional .env file,
// and an optional YAML config file. Environment variables win over the
// file; invalid values fall back to defaults with a logged warning
// unless STRICT_CONFIG is set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		WorkerCount:      defaultWorkerCount,
		SourceTimeoutSec: defaultSourceTimeoutSec,
		SeedIfMissing:    true,
		StrictConfig:     parseBoolEnv("STRICT_CONFIG"),
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil && !os.IsNotExist(fileErr) {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.DataDir = firstNonEmpty(os.Getenv("DATA_DIR"), fileCfg.DataDir, defaultDataDir)
	cfg.OutDir = firstNonEmpty(os.Getenv("OUT_DIR"), fileCfg.OutDir, defaultOutDir)
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	} else if fileCfg.DBPath != "" {
		cfg.DBPath = fileCfg.DBPath
	} else {
		cfg.DBPath = filepath.Join(cfg.OutDir, defaultDBFile)
	}

	if fileCfg.Watch != nil {
		cfg.Watch = *fileCfg.Watch
	}
	if v := os.Getenv("WATCH"); v != "" {
		cfg.Watch = parseBoolEnv("WATCH")
	}
	if fileCfg.SeedIfMissing != nil {
		cfg.SeedIfMissing = *fileCfg.SeedIfMissing
	}
	if v := os.Getenv("SEED_IF_MISSING"); v != "" {
		cfg.SeedIfMissing = parseBoolEnv("SEED_IF_MISSING")
	}

	if fileCfg.WorkerCount != nil && *fileCfg.WorkerCount > 0 {
		cfg.WorkerCount = *fileCfg.WorkerCount
	}
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			if cfg.StrictConfig {
				return cfg, fmt.Errorf("invalid WORKER_COUNT=%q", v)
			}
			log.Printf("invalid WORKER_COUNT=%q, using default %d", v, defaultWorkerCount)
			n = defaultWorkerCount
		}
		cfg.WorkerCount = n
	}
	if cfg.WorkerCount > maxWorkerCount {
		log.Printf("WORKER_COUNT capped at %d (was %d)", maxWorkerCount, cfg.WorkerCount)
		cfg.WorkerCount = maxWorkerCount
	}

	if v := os.Getenv("SOURCE_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			if cfg.StrictConfig {
				return cfg, fmt.Errorf("invalid SOURCE_TIMEOUT_SEC=%q", v)
			}
			log.Printf("invalid SOURCE_TIMEOUT_SEC=%q, using default %d", v, defaultSourceTimeoutSec)
			n = defaultSourceTimeoutSec
		}
		cfg.SourceTimeoutSec = n
	}

	log.Printf("config: data_dir=%s out_dir=%s db=%s watch=%t workers=%d", cfg.DataDir, cfg.OutDir, cfg.DBPath, cfg.Watch, cfg.WorkerCount)
	return cfg, nil
}

// SourceTimeout returns the per-source read timeout as a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSec) * time.Second
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBoolEnv(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Now returns a UTC timestamp truncated to the second, for stable run
// bookkeeping in the store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
