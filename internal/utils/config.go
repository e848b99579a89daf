package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/RubixDev/immich-gpx/pkg/file"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrConfigRead       ConfigErrorType = "READ_FAILED"
	ErrConfigParsing    ConfigErrorType = "PARSING_FAILED"
	ErrConfigValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is returned by LoadConfig and Config.Validate.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config represents the structure of the configuration file.
type Config struct {
	Immich struct {
		Server         string        `yaml:"server" validate:"required,url"`      // Base URL of the Immich server
		APIKey         string        `yaml:"api_key" validate:"required"`         // API key sent as x-api-key
		RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`    // Timeout of a single HTTP request
		PageSize       int           `yaml:"page_size" validate:"gte=1,lte=1000"` // Assets per search page
		StartPage      int           `yaml:"start_page" validate:"gte=1"`         // First search page to fetch
		MaxPages       int           `yaml:"max_pages" validate:"gte=0"`          // Page limit, 0 for no limit
		CameraMake     string        `yaml:"camera_make"`                         // Only list assets of this camera brand
		CameraModel    string        `yaml:"camera_model"`                        // Only list assets of this camera model
		Retry          struct {
			MaxRetries int           `yaml:"max_retries" validate:"gte=0"` // Retries on 429 and 5xx responses
			MinWait    time.Duration `yaml:"min_wait" validate:"gte=0"`    // Initial backoff
			MaxWait    time.Duration `yaml:"max_wait" validate:"gte=0"`    // Backoff ceiling
		} `yaml:"retry"`
	} `yaml:"immich"`

	Tracks struct {
		SkipInvalid       bool          `yaml:"skip_invalid"`                        // Skip unreadable track files instead of aborting
		BackstepTolerance time.Duration `yaml:"backstep_tolerance" validate:"gte=0"` // Allowed backwards jitter between samples
	} `yaml:"tracks"`

	Matching struct {
		MaxGap time.Duration `yaml:"max_gap" validate:"gt=0"` // Largest bracket gap that may be interpolated
	} `yaml:"matching"`

	Selection struct {
		OwnerID                  string `yaml:"owner_id"`                    // Only geotag assets of this owner
		OnlyMissingLocation      bool   `yaml:"only_missing_location"`       // Leave assets with a location untouched
		PartialLocationAsMissing bool   `yaml:"partial_location_as_missing"` // Treat a half-set location as missing
		AuditFiltered            bool   `yaml:"audit_filtered"`              // Report filtered assets as skipped
	} `yaml:"selection"`

	Planning struct {
		Workers int `yaml:"workers" validate:"gte=1"` // Worker pool size for matching
	} `yaml:"planning"`

	Apply struct {
		DryRun           bool          `yaml:"dry_run"`                            // Plan only, send nothing
		ConcurrencyLimit int           `yaml:"concurrency_limit" validate:"gte=1"` // Concurrent update calls
		PerCallTimeout   time.Duration `yaml:"per_call_timeout" validate:"gt=0"`   // Deadline of a single update call
	} `yaml:"apply"`

	Report struct {
		OutputFile  string `yaml:"output_file"`  // JSON summary path, empty to disable
		GeoJSONFile string `yaml:"geojson_file"` // GeoJSON map of the track and planned assets
		S3          struct {
			Enabled         bool   `yaml:"enabled"`
			Endpoint        string `yaml:"endpoint" validate:"required_if=Enabled true"`
			AccessKeyID     string `yaml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key"`
			UseSSL          bool   `yaml:"use_ssl"`
			Bucket          string `yaml:"bucket" validate:"required_if=Enabled true"`
			Prefix          string `yaml:"prefix"`
		} `yaml:"s3"`
		MQTT struct {
			Enabled       bool   `yaml:"enabled"`
			Broker        string `yaml:"broker" validate:"required_if=Enabled true"` // MQTT broker address
			ClientID      string `yaml:"client_id"`                                  // MQTT client ID
			CACertificate string `yaml:"ca_certificate"`                             // Path to the CA certificate, empty for plain TCP
			Topic         string `yaml:"topic" validate:"required_if=Enabled true"`  // Topic the run summary is published on
			QOS           int    `yaml:"qos" validate:"gte=0,lte=2"`                 // MQTT QoS level for summary messages
		} `yaml:"mqtt"`
	} `yaml:"report"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
}

// envOverrides lists the settings that may come from the environment or a .env file.
type envOverrides struct {
	Server   string `envconfig:"IMMICH_SERVER"`
	APIKey   string `envconfig:"IMMICH_API_KEY"`
	LogLevel string `envconfig:"IMMICH_GPX_LOG_LEVEL"`
}

// DefaultConfig returns the settings used for keys missing from the file.
func DefaultConfig() *Config {
	var config Config
	config.Immich.RequestTimeout = 30 * time.Second
	config.Immich.PageSize = 250
	config.Immich.StartPage = 1
	config.Immich.Retry.MaxRetries = 3
	config.Immich.Retry.MinWait = 500 * time.Millisecond
	config.Immich.Retry.MaxWait = 10 * time.Second
	config.Tracks.BackstepTolerance = time.Second
	config.Matching.MaxGap = 5 * time.Minute
	config.Selection.OnlyMissingLocation = true
	config.Planning.Workers = 4
	config.Apply.ConcurrencyLimit = 4
	config.Apply.PerCallTimeout = 30 * time.Second
	config.Report.MQTT.ClientID = "immich-gpx"
	config.Report.MQTT.QOS = 1
	config.LogLevel = "info"
	return &config
}

// LoadConfig loads the YAML configuration from the specified file on top of
// DefaultConfig and applies environment overrides. An empty filename skips the
// file. The result is not validated, so flags can still be applied; call
// Validate before use.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		exists, err := fileClient.IsFileExists(filename)
		if err != nil {
			return nil, &ConfigError{Type: ErrConfigRead, Message: "failed to stat " + filename, Err: err}
		}
		if exists {
			if err := fileClient.ReadYamlFile(filename, config); err != nil {
				return nil, &ConfigError{Type: ErrConfigParsing, Message: "failed to parse " + filename, Err: err}
			}
		}
	}

	// A missing .env file is not an error. Existing variables win.
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, &ConfigError{Type: ErrConfigParsing, Message: "failed to process environment configuration", Err: err}
	}
	if env.Server != "" {
		config.Immich.Server = env.Server
	}
	if env.APIKey != "" {
		config.Immich.APIKey = env.APIKey
	}
	if env.LogLevel != "" {
		config.LogLevel = env.LogLevel
	}

	return config, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return &ConfigError{
				Type:    ErrConfigValidation,
				Message: "invalid value for " + fields[0].Namespace(),
				Err:     err,
			}
		}
		return &ConfigError{Type: ErrConfigValidation, Message: "configuration validation failed", Err: err}
	}
	return nil
}
