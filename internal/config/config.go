package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"chemhits/adapters/chembl"
	"chemhits/domain/bioactivity"
	"chemhits/internal/errors"
	"chemhits/internal/pipeline"

	"github.com/go-playground/validator/v10"
)

// Supported record sources
const (
	SourceREST     = "rest"
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `validate:"required"`
	ChEMBL   ChEMBLConfig   `validate:"required"`
	Database DatabaseConfig
	Policy   PolicyConfig `validate:"required"`
	Output   OutputConfig `validate:"required"`
	Server   ServerConfig `validate:"required"`
}

// SourceConfig selects where raw records come from
type SourceConfig struct {
	Kind      string `validate:"oneof=rest postgres file"`
	InputFile string `validate:"required_if=Kind file"`
}

// ChEMBLConfig holds REST API settings
type ChEMBLConfig struct {
	BaseURL           string        `validate:"required,url"`
	Timeout           time.Duration `validate:"gt=0"`
	PageSize          int           `validate:"gt=0,lte=1000"`
	RequestsPerSecond float64       `validate:"gt=0"`
	RecordLimit       int           `validate:"gt=0"`
}

// DatabaseConfig holds the optional ChEMBL dump connection
type DatabaseConfig struct {
	URL string
}

// PolicyConfig holds every pipeline threshold
type PolicyConfig struct {
	MinValueNM       float64
	MaxValueNM       float64
	MeasurementTypes []string
	AssayTypes       []string
	MinConfidence    int
	HitCutoff        float64
	ActivityColumn   string
	HitMinN          int
	StrongCutoff     float64
	WeakCutoff       float64
	MaxStd           float64
	ClassifyMinN     int
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir     string   `validate:"required"`
	Formats []string `validate:"required,min=1,dive,oneof=csv xlsx md markdown html"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Source:   *loadSourceConfig(),
		ChEMBL:   *loadChEMBLConfig(),
		Database: DatabaseConfig{URL: getEnvOrDefault("CHEMBL_DATABASE_URL", "")},
		Policy:   *loadPolicyConfig(),
		Output:   *loadOutputConfig(),
		Server:   *loadServerConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadSourceConfig() *SourceConfig {
	return &SourceConfig{
		Kind:      strings.ToLower(getEnvOrDefault("DATA_SOURCE", SourceREST)),
		InputFile: getEnvOrDefault("INPUT_FILE", ""),
	}
}

func loadChEMBLConfig() *ChEMBLConfig {
	defaults := chembl.DefaultClientConfig()
	return &ChEMBLConfig{
		BaseURL:           getEnvOrDefault("CHEMBL_BASE_URL", defaults.BaseURL),
		Timeout:           getEnvDurationOrDefault("CHEMBL_TIMEOUT", defaults.Timeout),
		PageSize:          getEnvIntOrDefault("CHEMBL_PAGE_SIZE", defaults.PageSize),
		RequestsPerSecond: getEnvFloatOrDefault("CHEMBL_RATE_LIMIT", defaults.RequestsPerSecond),
		RecordLimit:       getEnvIntOrDefault("CHEMBL_RECORD_LIMIT", 200),
	}
}

func loadPolicyConfig() *PolicyConfig {
	d := pipeline.DefaultPolicy()
	return &PolicyConfig{
		MinValueNM:       getEnvFloatOrDefault("MIN_VALUE_NM", d.Normalization.MinValueNM),
		MaxValueNM:       getEnvFloatOrDefault("MAX_VALUE_NM", d.Normalization.MaxValueNM),
		MeasurementTypes: getEnvListOrDefault("MEASUREMENT_TYPES", d.Normalization.MeasurementTypes),
		AssayTypes:       getEnvListOrDefault("ASSAY_TYPES", d.Normalization.AssayTypes),
		MinConfidence:    getEnvIntOrDefault("MIN_CONFIDENCE", d.Normalization.MinConfidence),
		HitCutoff:        getEnvFloatOrDefault("HIT_CUTOFF", d.Hits.Cutoff),
		ActivityColumn:   getEnvOrDefault("ACTIVITY_COL", string(d.Hits.ActivityColumn)),
		HitMinN:          getEnvIntOrDefault("HIT_MIN_N", d.Hits.MinReplicates),
		StrongCutoff:     getEnvFloatOrDefault("STRONG_CUTOFF", d.Classification.StrongCutoff),
		WeakCutoff:       getEnvFloatOrDefault("WEAK_CUTOFF", d.Classification.WeakCutoff),
		MaxStd:           getEnvFloatOrDefault("MAX_STD", d.Classification.MaxStd),
		ClassifyMinN:     getEnvIntOrDefault("CLASSIFY_MIN_N", d.Classification.MinReplicates),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir:     getEnvOrDefault("OUTPUT_DIR", "results"),
		Formats: getEnvListOrDefault("OUTPUT_FORMATS", []string{"csv"}),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate re-checks a configuration after callers override fields
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.ConfigInvalid(fe.Namespace() + " failed " + fe.Tag() + " validation")
		}
		return errors.ConfigInvalid(err.Error())
	}
	if config.Source.Kind == SourcePostgres && config.Database.URL == "" {
		return errors.ConfigInvalid("CHEMBL_DATABASE_URL is required for the postgres source")
	}
	if err := config.PipelinePolicy().Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// PipelinePolicy builds the pipeline policy from the configured thresholds
func (c *Config) PipelinePolicy() pipeline.Policy {
	p := pipeline.DefaultPolicy()
	p.Normalization.MinValueNM = c.Policy.MinValueNM
	p.Normalization.MaxValueNM = c.Policy.MaxValueNM
	p.Normalization.MeasurementTypes = c.Policy.MeasurementTypes
	p.Normalization.AssayTypes = c.Policy.AssayTypes
	p.Normalization.MinConfidence = c.Policy.MinConfidence
	p.Hits.Cutoff = c.Policy.HitCutoff
	p.Hits.ActivityColumn = bioactivity.ActivityColumn(c.Policy.ActivityColumn)
	p.Hits.MinReplicates = c.Policy.HitMinN
	p.Classification.StrongCutoff = c.Policy.StrongCutoff
	p.Classification.WeakCutoff = c.Policy.WeakCutoff
	p.Classification.MaxStd = c.Policy.MaxStd
	p.Classification.MinReplicates = c.Policy.ClassifyMinN
	return p
}

// ClientConfig builds the ChEMBL REST client configuration
func (c *Config) ClientConfig() chembl.ClientConfig {
	cfg := chembl.DefaultClientConfig()
	cfg.BaseURL = c.ChEMBL.BaseURL
	cfg.Timeout = c.ChEMBL.Timeout
	cfg.PageSize = c.ChEMBL.PageSize
	cfg.RequestsPerSecond = c.ChEMBL.RequestsPerSecond
	return cfg
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
