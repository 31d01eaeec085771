// Package config loads worker configuration from the environment,
// optionally overlaid by a config.yaml, the same two-phase shape the
// rest of this codebase's ancestry uses: YAML first for defaults, then
// env vars win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved worker configuration.
type Config struct {
	EnvState string `yaml:"-"`

	MongoURI string `yaml:"mongo_uri"`
	DBName   string `yaml:"db_name"`

	RedisURL string `yaml:"redis_url"`
	QueueKey string `yaml:"queue_key"`

	TestCaseAPIFormat string   `yaml:"testcase_api_format"`
	TerminalStatuses  []string `yaml:"-"`

	LogDir      string `yaml:"log_dir"`
	LogFilePath string `yaml:"log_file_path"`

	WorkerCount     int           `yaml:"worker_count"`
	ShutdownGrace   time.Duration `yaml:"shutdown_grace"`
	DefaultTimeMs   int           `yaml:"default_time_limit_ms"`
	DefaultMemoryMb int           `yaml:"default_memory_limit_mb"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOUseSSL    bool   `yaml:"minio_use_ssl"`

	MetricsPort string `yaml:"metrics_port"`
}

// Load resolves configuration: an optional config.yaml supplies
// defaults, then ENV_STATE-prefixed environment variables (falling back
// to their unprefixed name) override them.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadFromYAML(cfg); err != nil {
		return nil, err
	}

	envState := os.Getenv("ENV_STATE")
	if envState == "" {
		envState = "dev"
	}
	cfg.EnvState = envState

	loadFromEnv(cfg, envState)

	return cfg, nil
}

func loadFromYAML(cfg *Config) error {
	const configFile = "config.yaml"
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// envLookup checks <PREFIX>_<KEY> before falling back to the bare <KEY>,
// so one ENV_STATE selects an entire block of overrides without every
// variable needing its own prefix.
func envLookup(envState, key string) (string, bool) {
	if v := os.Getenv(envState + "_" + key); v != "" {
		return v, true
	}
	if v := os.Getenv(key); v != "" {
		return v, true
	}
	return "", false
}

func loadFromEnv(cfg *Config, envState string) {
	if v, ok := envLookup(envState, "MONGO_URI"); ok {
		cfg.MongoURI = v
	}
	if v, ok := envLookup(envState, "DB_NAME"); ok {
		cfg.DBName = v
	}
	if v, ok := envLookup(envState, "REDIS_URL"); ok {
		cfg.RedisURL = v
	}
	if v, ok := envLookup(envState, "QUEUE_KEY"); ok {
		cfg.QueueKey = v
	}
	if cfg.QueueKey == "" {
		cfg.QueueKey = "submission_queue"
	}
	if v, ok := envLookup(envState, "TESTCASE_API_FORMAT"); ok {
		cfg.TestCaseAPIFormat = v
	}
	if v, ok := envLookup(envState, "TERMINAL_STATUSES"); ok {
		cfg.TerminalStatuses = splitCSV(v)
	}
	if len(cfg.TerminalStatuses) == 0 {
		cfg.TerminalStatuses = []string{"success", "failed"}
	}
	if v, ok := envLookup(envState, "LOG_DIR"); ok {
		cfg.LogDir = v
	}
	if v, ok := envLookup(envState, "LOG_FILE_PATH"); ok {
		cfg.LogFilePath = v
	}

	if v, ok := envLookup(envState, "WORKER_COUNT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerCount = n
		}
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.DefaultTimeMs == 0 {
		cfg.DefaultTimeMs = 2000
	}
	if cfg.DefaultMemoryMb == 0 {
		cfg.DefaultMemoryMb = 256
	}

	if v, ok := envLookup(envState, "MINIO_ENDPOINT"); ok {
		cfg.MinIOEndpoint = v
	}
	if v, ok := envLookup(envState, "MINIO_ACCESS_KEY"); ok {
		cfg.MinIOAccessKey = v
	}
	if v, ok := envLookup(envState, "MINIO_SECRET_KEY"); ok {
		cfg.MinIOSecretKey = v
	}
	if v, ok := envLookup(envState, "MINIO_BUCKET"); ok {
		cfg.MinIOBucket = v
	}
	if cfg.MinIOBucket == "" {
		cfg.MinIOBucket = "testcases"
	}
	if v, ok := envLookup(envState, "MINIO_USE_SSL"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MinIOUseSSL = b
		}
	}

	if v, ok := envLookup(envState, "METRICS_PORT"); ok {
		cfg.MetricsPort = v
	}
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = "9090"
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
