package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	ExistDB  ExistDBConfig  `yaml:"existdb"`
	NLP      NLPConfig      `yaml:"nlp"`
	Retry    RetryConfig    `yaml:"retry"`
	Events   EventsConfig   `yaml:"events"`
	Audit    AuditConfig    `yaml:"audit"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Health   HealthConfig   `yaml:"health"`
	Logging  LoggingConfig  `yaml:"logging"`
	Services ServicesConfig `yaml:"services,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	AdminPort      int           `yaml:"admin_port"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty"`
	ReadTimeout    time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout   time.Duration `yaml:"write_timeout,omitempty"`
}

// ExistDBConfig holds connection settings for the eXist-db REST API.
type ExistDBConfig struct {
	URL      string        `yaml:"url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// NLPConfig holds connection settings for the NLP microservice.
type NLPConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// RetryBackoffMode selects the backoff growth curve for transient failures.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig holds retry/backoff settings for outbound calls.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// EventsConfig holds NATS JetStream settings for document lifecycle events.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NATSURL  string `yaml:"nats_url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// AuditConfig holds settings for the SQLite audit log.
type AuditConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ArchiveConfig holds settings for the git snapshot archive.
type ArchiveConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Directory   string        `yaml:"directory,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	Collections []string      `yaml:"collections,omitempty"`
}

// HealthConfig holds settings for the periodic eXist-db health probe.
type HealthConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

// ServicesConfig lists URLs of auxiliary services that are configured but not
// yet orchestrated (kept for parity with the deployment's environment contract).
type ServicesConfig struct {
	FusekiURL        string `yaml:"fuseki_url,omitempty"`
	ElasticsearchURL string `yaml:"elasticsearch_url,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists.
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := `# Revlogica Orchestrator configuration
server:
  port: 8000
  admin_port: 8001
  allowed_origins:
    - http://localhost
    - http://localhost:3000

existdb:
  url: http://existdb:8080/exist/rest/db
  user: admin
  password: ${EXIST_PASSWORD}
  timeout: 20s

nlp:
  url: http://nlp:8080
  timeout: 30s

retry:
  backoff: linear
  initial: 1s
  max: 30s
  max_retries: 2

events:
  enabled: false
  nats_url: nats://localhost:4222
  subject: manuscripts.events
  kv_bucket: nlp-extractions

audit:
  path: ./orchestrator-audit.db

archive:
  enabled: false
  directory: ./manuscript-archive
  interval: 1h
  collections:
    - manuscripts

health:
  probe_interval: 30s

logging:
  level: info
  format: text
`
	return os.WriteFile(configPath, []byte(example), 0o644)
}
