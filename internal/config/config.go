package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	CacheDir   string `yaml:"cache_dir"`
	DBPath     string `yaml:"db_path"`
	LogPath    string `yaml:"log_path"`
	ConfigPath string `yaml:"-"`

	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`

	ThreadTTL         time.Duration `yaml:"thread_ttl"`
	MemoryCacheSize   int           `yaml:"memory_cache_size"`
	MonitorInterval   time.Duration `yaml:"monitor_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	RetryMax          int           `yaml:"retry_max"`
	FetchConcurrency  int           `yaml:"fetch_concurrency"`
	Debug             bool          `yaml:"debug"`
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "threadline")
	return Config{
		CacheDir:          cacheDir,
		DBPath:            filepath.Join(cacheDir, "cache.db"),
		LogPath:           filepath.Join(cacheDir, "debug.log"),
		ConfigPath:        filepath.Join(cacheDir, "config.yaml"),
		BaseURL:           "https://backend.boba.social",
		ThreadTTL:         30 * time.Second,
		MemoryCacheSize:   64,
		MonitorInterval:   60 * time.Second,
		RequestTimeout:    10 * time.Second,
		RequestsPerSecond: 4,
		RetryMax:          2,
		FetchConcurrency:  4,
	}
}

// Load starts from Default, overlays the YAML file at path when it exists
// and then THREADLINE_* environment variables. An empty path uses the
// default config file location.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = cfg.ConfigPath
	}
	cfg.ConfigPath = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.CacheDir = getEnvString("THREADLINE_CACHE_DIR", cfg.CacheDir)
	cfg.DBPath = getEnvString("THREADLINE_DB_PATH", cfg.DBPath)
	cfg.LogPath = getEnvString("THREADLINE_LOG_PATH", cfg.LogPath)
	cfg.BaseURL = getEnvString("THREADLINE_BASE_URL", cfg.BaseURL)
	cfg.AuthToken = getEnvString("THREADLINE_AUTH_TOKEN", cfg.AuthToken)
	cfg.ThreadTTL = getEnvDuration("THREADLINE_THREAD_TTL", cfg.ThreadTTL)
	cfg.MemoryCacheSize = getEnvInt("THREADLINE_MEMORY_CACHE_SIZE", cfg.MemoryCacheSize)
	cfg.MonitorInterval = getEnvDuration("THREADLINE_MONITOR_INTERVAL", cfg.MonitorInterval)
	cfg.RequestTimeout = getEnvDuration("THREADLINE_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RequestsPerSecond = getEnvFloat("THREADLINE_REQUESTS_PER_SECOND", cfg.RequestsPerSecond)
	cfg.RetryMax = getEnvInt("THREADLINE_RETRY_MAX", cfg.RetryMax)
	cfg.FetchConcurrency = getEnvInt("THREADLINE_FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.Debug = getEnvBool("THREADLINE_DEBUG", cfg.Debug)

	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("base url is not set")
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	return cfg, nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
