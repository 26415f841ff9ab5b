// Package config resolves runtime settings for the assessment service.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings. Values are layered: built-in
// defaults, then an optional properties file, then environment variables.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// LogFilePath is the path of the log file sink; empty disables it.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// CacheTTL bounds how long derived responses (membership tables,
	// dataset stats, comparisons) are served from cache.
	CacheTTL time.Duration
	// DataDir holds persisted settings blobs.
	DataDir string
	// PropertiesPath records the path used to load property values.
	PropertiesPath string
	// EnhancedBackendURL points at a remote enhanced-scoring service.
	// Empty selects the in-process engine.
	EnhancedBackendURL string
	// BreakerMaxFailures is the consecutive-failure count that opens the
	// enhanced backend circuit breaker.
	BreakerMaxFailures int
	// BreakerResetTimeout is the open interval before the breaker probes.
	BreakerResetTimeout time.Duration
	// KafkaBrokers lists brokers for the assessment audit stream; empty
	// disables auditing.
	KafkaBrokers []string
	// AuditTopic names the Kafka topic receiving assessment events.
	AuditTopic string
	// DatasetSize is the synthetic corpus size backing comparisons.
	DatasetSize int
	// DatasetSeed fixes the corpus RNG so metrics are reproducible.
	DatasetSeed int64
	// CompareMaxSamples caps the per-request comparison sample count.
	CompareMaxSamples int
}

const (
	defaultListenAddress  = ":8090"
	defaultLogFile        = "logs/airassess.log"
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultShutdown       = 10 * time.Second
	defaultCacheTTL       = 60 * time.Second
	defaultDataDir        = "data"
	defaultPropsPath      = "airassess.properties"
	defaultBreakerFails   = 3
	defaultBreakerReset   = 30 * time.Second
	defaultAuditTopic     = "airassess.assessments"
	defaultDatasetSize    = 5000
	defaultDatasetSeed    = 42
	defaultCompareSamples = 1000
)

// Load resolves configuration by layering defaults, an optional properties
// file, and finally environment variables. The properties file location can
// be overridden with AIRASSESS_PROPERTIES_PATH; a missing file is fine.
func Load() (Config, error) {
	cfg := Config{
		ListenAddress:       defaultListenAddress,
		LogFilePath:         filepath.Clean(defaultLogFile),
		HTTPReadTimeout:     defaultReadTimeout,
		HTTPWriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout:     defaultShutdown,
		CacheTTL:            defaultCacheTTL,
		DataDir:             defaultDataDir,
		BreakerMaxFailures:  defaultBreakerFails,
		BreakerResetTimeout: defaultBreakerReset,
		AuditTopic:          defaultAuditTopic,
		DatasetSize:         defaultDatasetSize,
		DatasetSeed:         defaultDatasetSeed,
		CompareMaxSamples:   defaultCompareSamples,
	}

	propsPath := strings.TrimSpace(os.Getenv("AIRASSESS_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyProperties(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	switch key {
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "log_path":
		cfg.LogFilePath = filepath.Clean(value)
	case "http_read_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPReadTimeout = d
	case "http_write_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPWriteTimeout = d
	case "shutdown_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	case "cache_ttl_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.CacheTTL = d
	case "data_dir":
		if value == "" {
			return errors.New("data_dir cannot be empty")
		}
		cfg.DataDir = filepath.Clean(value)
	case "enhanced_backend_url":
		cfg.EnhancedBackendURL = strings.TrimRight(value, "/")
	case "breaker_max_failures":
		n, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		cfg.BreakerMaxFailures = n
	case "breaker_reset_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.BreakerResetTimeout = d
	case "kafka_brokers":
		cfg.KafkaBrokers = splitAndTrim(value)
	case "audit_topic":
		if value == "" {
			return errors.New("audit_topic cannot be empty")
		}
		cfg.AuditTopic = value
	case "dataset_size":
		n, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		cfg.DatasetSize = n
	case "dataset_seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid dataset_seed: %w", err)
		}
		cfg.DatasetSeed = n
	case "compare_max_samples":
		n, err := parsePositiveInt(value)
		if err != nil {
			return err
		}
		cfg.CompareMaxSamples = n
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

func applyEnv(cfg *Config) error {
	type entry struct {
		env string
		key string
	}
	entries := []entry{
		{"AIRASSESS_LISTEN_ADDRESS", "listen_address"},
		{"AIRASSESS_LOG_PATH", "log_path"},
		{"AIRASSESS_HTTP_READ_TIMEOUT_MS", "http_read_timeout_ms"},
		{"AIRASSESS_HTTP_WRITE_TIMEOUT_MS", "http_write_timeout_ms"},
		{"AIRASSESS_SHUTDOWN_TIMEOUT_MS", "shutdown_timeout_ms"},
		{"AIRASSESS_CACHE_TTL_MS", "cache_ttl_ms"},
		{"AIRASSESS_DATA_DIR", "data_dir"},
		{"ENHANCED_BACKEND_URL", "enhanced_backend_url"},
		{"AIRASSESS_BREAKER_MAX_FAILURES", "breaker_max_failures"},
		{"AIRASSESS_BREAKER_RESET_TIMEOUT_MS", "breaker_reset_timeout_ms"},
		{"AIRASSESS_KAFKA_BROKERS", "kafka_brokers"},
		{"AIRASSESS_AUDIT_TOPIC", "audit_topic"},
		{"AIRASSESS_DATASET_SIZE", "dataset_size"},
		{"AIRASSESS_DATASET_SEED", "dataset_seed"},
		{"AIRASSESS_COMPARE_MAX_SAMPLES", "compare_max_samples"},
	}
	for _, e := range entries {
		v, ok := os.LookupEnv(e.env)
		if !ok {
			continue
		}
		if err := setProperty(cfg, e.key, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func parsePositiveMillis(value string) (time.Duration, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if n <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return time.Duration(n) * time.Millisecond, nil
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return 0, errors.New("value must be positive")
	}
	return n, nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
