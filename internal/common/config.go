package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joseph-ayodele/textract-sheets/constants"
)

// Config holds all application configuration
type Config struct {
	Results ResultsConfig `mapstructure:"results"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Poll    PollConfig    `mapstructure:"poll"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Lease   LeaseConfig   `mapstructure:"lease"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Log     LogConfig     `mapstructure:"log"`
}

// ResultsConfig describes where result files are written and listed.
type ResultsConfig struct {
	Bucket     string        `mapstructure:"bucket"`
	Prefix     string        `mapstructure:"prefix"`
	Format     string        `mapstructure:"format"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// OCRConfig holds Textract job settings
type OCRConfig struct {
	OutputBucket       string `mapstructure:"output_bucket"`
	OutputPrefix       string `mapstructure:"output_prefix"`
	NotifyOnCompletion bool   `mapstructure:"notify_on_completion"`
}

// NotifyConfig names the SNS topic and the role Textract may publish with.
type NotifyConfig struct {
	TopicARN string `mapstructure:"topic_arn"`
	RoleARN  string `mapstructure:"role_arn"`
}

// PollConfig is the job-status polling policy. MaxAttempts 0 polls until
// a terminal status or Timeout; Timeout 0 defers to the caller's context.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts uint          `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// UploadConfig is where the CLI puts source documents.
type UploadConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// LeaseConfig selects the per-job lease backend.
type LeaseConfig struct {
	Driver string        `mapstructure:"driver"`
	DSN    string        `mapstructure:"dsn"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// AWSConfig overrides SDK defaults (mostly for local stacks).
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Role selects which fields Validate requires.
type Role string

const (
	RoleSubmitter  Role = "submitter"
	RoleAggregator Role = "aggregator"
	RoleLister     Role = "lister"
	RoleUploader   Role = "uploader"
)

// ConfigError names every missing configuration value.
type ConfigError struct {
	Role   Role
	Fields []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMissingConfig, e.Role, strings.Join(e.Fields, ", "))
}

func (e *ConfigError) Unwrap() error {
	return ErrMissingConfig
}

// env names per key; the first set variable wins.
var envBindings = map[string][]string{
	"results.bucket":           {"BUCKET_NAME", "OUTPUT_BUCKET_NAME"},
	"results.prefix":           {"PREFIX"},
	"results.format":           {"RESULT_FORMAT"},
	"results.presign_ttl":      {"PRESIGN_TTL"},
	"ocr.output_bucket":        {"OUTPUT_BUCKET_NAME"},
	"ocr.output_prefix":        {"OUTPUT_S3_PREFIX"},
	"ocr.notify_on_completion": {"TEXTRACT_NOTIFY"},
	"notify.topic_arn":         {"SNS_TOPIC_ARN"},
	"notify.role_arn":          {"SNS_ROLE_ARN"},
	"poll.interval":            {"POLL_INTERVAL"},
	"poll.max_attempts":        {"POLL_MAX_ATTEMPTS"},
	"poll.timeout":             {"POLL_TIMEOUT"},
	"upload.bucket":            {"UPLOAD_BUCKET_NAME"},
	"upload.prefix":            {"UPLOAD_PREFIX"},
	"lease.driver":             {"LEASE_DRIVER"},
	"lease.dsn":                {"LEASE_DSN"},
	"lease.ttl":                {"LEASE_TTL"},
	"aws.region":               {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"aws.endpoint":             {"AWS_ENDPOINT_URL"},
	"log.level":                {"LOG_LEVEL"},
}

// Lease drivers.
const (
	LeaseDriverNone     = "none"
	LeaseDriverPostgres = "postgres"
	LeaseDriverSQLite   = "sqlite"
)

const defaultLeaseTTL = 15 * time.Minute

func setDefaults(v *viper.Viper) {
	v.SetDefault("results.prefix", "csv")
	v.SetDefault("results.format", string(constants.FormatCSV))
	v.SetDefault("results.presign_ttl", time.Hour)
	v.SetDefault("ocr.notify_on_completion", false)
	v.SetDefault("poll.interval", 5*time.Second)
	v.SetDefault("poll.max_attempts", 0)
	v.SetDefault("poll.timeout", time.Duration(0))
	v.SetDefault("upload.prefix", "upload")
	v.SetDefault("lease.driver", LeaseDriverNone)
	v.SetDefault("lease.ttl", defaultLeaseTTL)
	v.SetDefault("log.level", "info")
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and the environment (highest precedence).
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Results.Prefix = strings.Trim(cfg.Results.Prefix, "/")
	cfg.Upload.Prefix = strings.Trim(cfg.Upload.Prefix, "/")
	return &cfg, nil
}

// Format returns the configured result format, defaulting to CSV.
func (c *Config) Format() constants.Format {
	if f, ok := constants.ParseFormat(c.Results.Format); ok {
		return f
	}
	return constants.FormatCSV
}

// Validate checks that every value the role depends on is present.
func (c *Config) Validate(role Role) error {
	v := NewValidator()
	switch role {
	case RoleSubmitter:
		v.Field("OUTPUT_BUCKET_NAME", c.OCR.OutputBucket, Required)
		v.Field("OUTPUT_S3_PREFIX", c.OCR.OutputPrefix, Required)
		v.Field("SNS_TOPIC_ARN", c.Notify.TopicARN, Required)
		v.Field("SNS_ROLE_ARN", c.Notify.RoleARN, Required)
	case RoleAggregator:
		v.Field("BUCKET_NAME", c.Results.Bucket, Required)
		v.Field("PREFIX", c.Results.Prefix, Required)
		if c.Lease.Driver != "" && c.Lease.Driver != LeaseDriverNone {
			v.Field("LEASE_DSN", c.Lease.DSN, Required)
		}
	case RoleLister:
		v.Field("BUCKET_NAME", c.Results.Bucket, Required)
		v.Field("PREFIX", c.Results.Prefix, Required)
	case RoleUploader:
		v.Field("UPLOAD_BUCKET_NAME", c.Upload.Bucket, Required)
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if v.HasErrors() {
		return &ConfigError{Role: role, Fields: v.Fields()}
	}

	if _, ok := constants.ParseFormat(c.Results.Format); !ok && c.Results.Format != "" {
		return NewAppError(KindInputMalformed, fmt.Sprintf("RESULT_FORMAT %q is not csv or xlsx", c.Results.Format), ErrInvalidInput)
	}
	switch c.Lease.Driver {
	case "", LeaseDriverNone, LeaseDriverPostgres, LeaseDriverSQLite:
	default:
		return NewAppError(KindInputMalformed, fmt.Sprintf("LEASE_DRIVER %q is not supported", c.Lease.Driver), ErrInvalidInput)
	}
	if role == RoleAggregator && c.Lease.Driver != "" && c.Lease.Driver != LeaseDriverNone {
		// a poll outliving the lease lets a second run take over a live job
		ttl := c.Lease.TTL
		if ttl <= 0 {
			ttl = defaultLeaseTTL
		}
		if c.Poll.Timeout <= 0 || c.Poll.Timeout >= ttl {
			return NewAppError(KindInputMalformed,
				fmt.Sprintf("POLL_TIMEOUT (%s) must be set and shorter than LEASE_TTL (%s) when a lease is used", c.Poll.Timeout, ttl),
				ErrInvalidInput)
		}
	}
	return nil
}

// NewLogger returns the JSON slog logger every entrypoint uses.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
