// Package config loads process configuration for the guardian binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

const (
	DatasetBuiltin  = "builtin"
	DatasetCSV      = "csv"
	DatasetPostgres = "postgres"

	ETARandom = "random"
	ETAOSRM   = "osrm"
)

// ServerConfig captures all tunable parameters for the API and the
// escalation consumer. Every key can be set from YAML or a GUARDIAN_ env var.
type ServerConfig struct {
	LogLevel string `koanf:"log_level"`

	HTTPAddr        string        `koanf:"http_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MonitorInterval is the background monitor tick.
	MonitorInterval time.Duration `koanf:"monitor_interval"`
	// DeviationProbability is the chance per tick of a synthetic route deviation.
	DeviationProbability float64 `koanf:"deviation_probability"`

	DatasetSource       string `koanf:"dataset_source"`
	DatasetDriversCSV   string `koanf:"dataset_drivers_csv"`
	DatasetLocationsCSV string `koanf:"dataset_locations_csv"`
	PGDSN               string `koanf:"pg_dsn"`

	MatcherStrategy string `koanf:"matcher_strategy"`
	MatcherTopN     int    `koanf:"matcher_top_n"`

	ETAMode          string        `koanf:"eta_mode"`
	DurationMinMin   int           `koanf:"duration_min_minutes"`
	DurationMaxMin   int           `koanf:"duration_max_minutes"`
	OSRMEndpoint     string        `koanf:"osrm_endpoint"`
	OSRMTimeout      time.Duration `koanf:"osrm_timeout"`
	ETACacheTTL      time.Duration `koanf:"eta_cache_ttl"`
	SafeRoutePenalty int           `koanf:"safe_route_penalty_minutes"`

	// LLM settings. An empty key keeps the keyword classifier only.
	LLMAPIKey  string        `koanf:"llm_api_key"`
	LLMBaseURL string        `koanf:"llm_base_url"`
	LLMModel   string        `koanf:"llm_model"`
	LLMTimeout time.Duration `koanf:"llm_timeout"`

	SafeWords       []string `koanf:"safe_words"`
	TrustedContacts []string `koanf:"trusted_contacts"`

	ReportArchiveSize int `koanf:"report_archive_size"`

	RedisAddr          string `koanf:"redis_addr"`
	RedisPassword      string `koanf:"redis_password"`
	RedisChannelPrefix string `koanf:"redis_channel_prefix"`

	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
	KafkaGroup   string   `koanf:"kafka_group"`

	AMQPURL      string `koanf:"amqp_url"`
	AMQPExchange string `koanf:"amqp_exchange"`

	WebhookURL     string        `koanf:"webhook_url"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`

	// Consumer only.
	MetricsAddr   string `koanf:"metrics_addr"`
	EscalationKey string `koanf:"escalation_key"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		LogLevel:             "info",
		HTTPAddr:             ":5000",
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         10 * time.Second,
		IdleTimeout:          120 * time.Second,
		ShutdownTimeout:      15 * time.Second,
		MonitorInterval:      10 * time.Second,
		DeviationProbability: 0.005,
		DatasetSource:        DatasetBuiltin,
		MatcherStrategy:      "random",
		MatcherTopN:          3,
		ETAMode:              ETARandom,
		DurationMinMin:       15,
		DurationMaxMin:       45,
		OSRMTimeout:          2 * time.Second,
		ETACacheTTL:          10 * time.Minute,
		SafeRoutePenalty:     3,
		LLMBaseURL:           "https://dashscope-intl.aliyuncs.com/compatible-mode/v1",
		LLMModel:             "qwen-plus",
		LLMTimeout:           10 * time.Second,
		TrustedContacts:      []string{"Mom", "Best Friend"},
		ReportArchiveSize:    1000,
		RedisChannelPrefix:   "guardian:ride:",
		KafkaTopic:           "ride-safety-events",
		KafkaGroup:           "guardian-escalation",
		AMQPExchange:         "ride_safety",
		WebhookTimeout:       3 * time.Second,
		MetricsAddr:          ":2112",
		EscalationKey:        "guardian:escalations",
	}
}

// Validate reports every problem at once.
func (c ServerConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, fmt.Errorf("http_addr must not be empty"))
	}
	if c.MonitorInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor_interval must be > 0"))
	}
	if c.DeviationProbability < 0 || c.DeviationProbability > 1 {
		errs = append(errs, fmt.Errorf("deviation_probability must be within [0,1]"))
	}
	switch c.DatasetSource {
	case DatasetBuiltin:
	case DatasetCSV:
		if c.DatasetDriversCSV == "" || c.DatasetLocationsCSV == "" {
			errs = append(errs, fmt.Errorf("dataset_drivers_csv and dataset_locations_csv are required for csv source"))
		}
	case DatasetPostgres:
		if c.PGDSN == "" {
			errs = append(errs, fmt.Errorf("pg_dsn is required for postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown dataset_source %q", c.DatasetSource))
	}
	switch c.MatcherStrategy {
	case "random", "safest":
	default:
		errs = append(errs, fmt.Errorf("unknown matcher_strategy %q", c.MatcherStrategy))
	}
	if c.MatcherTopN <= 0 {
		errs = append(errs, fmt.Errorf("matcher_top_n must be > 0"))
	}
	switch c.ETAMode {
	case ETARandom:
	case ETAOSRM:
		if c.OSRMEndpoint == "" {
			errs = append(errs, fmt.Errorf("osrm_endpoint is required for osrm eta_mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown eta_mode %q", c.ETAMode))
	}
	if c.DurationMinMin <= 0 || c.DurationMaxMin < c.DurationMinMin {
		errs = append(errs, fmt.Errorf("duration bounds must satisfy 0 < min <= max"))
	}
	if c.ReportArchiveSize <= 0 {
		errs = append(errs, fmt.Errorf("report_archive_size must be > 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
