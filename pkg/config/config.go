package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment overrides, e.g. MLOPSLITE_STORE_URL.
const EnvPrefix = "MLOPSLITE"

type Duration struct {
	time.Duration
}

func (d *Duration) parse(v interface{}) error {
	switch value := v.(type) {
	case Duration:
		*d = value
	case float64:
		d.Duration = time.Duration(value)
	case int:
		d.Duration = time.Duration(value)
	case int64:
		d.Duration = time.Duration(value)
	case string:
		var err error

		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
	default:
		return errors.New("invalid duration")
	}

	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	return d.parse(v)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(Duration{})

// durationHook lets viper decode strings ("30s") and nanosecond numbers into Duration.
func durationHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType {
		return data, nil
	}

	var d Duration
	if err := d.parse(data); err != nil {
		return nil, err
	}

	return d, nil
}

type Config struct {
	Address            string   `json:"address"              mapstructure:"address"              yaml:"address"              validate:"required"`
	StoreURL           string   `json:"store_url"            mapstructure:"store_url"            yaml:"store_url"            validate:"required"`
	LogLevel           string   `json:"log_level"            mapstructure:"log_level"            yaml:"log_level"            validate:"oneof=trace debug info warn warning error fatal panic"`
	ShutdownTimeout    Duration `json:"shutdown_timeout"     mapstructure:"shutdown_timeout"     yaml:"shutdown_timeout"`
	SlowQueryThreshold Duration `json:"slow_query_threshold" mapstructure:"slow_query_threshold" yaml:"slow_query_threshold"`
	DeployableCacheTTL Duration `json:"deployable_cache_ttl" mapstructure:"deployable_cache_ttl" yaml:"deployable_cache_ttl"`
	ExecutionLogging   bool     `json:"execution_logging"    mapstructure:"execution_logging"    yaml:"execution_logging"`
	MaxResults         int      `json:"max_results"          mapstructure:"max_results"          yaml:"max_results"          validate:"min=1,max=50000"`
	Version            string   `json:"version"              mapstructure:"version"              yaml:"version"`
}

// Default returns the configuration used when nothing else is given: a local
// sqlite file next to the process.
func Default() *Config {
	return &Config{
		Address:            "localhost:5050",
		StoreURL:           "sqlite://mlops-lite.db",
		LogLevel:           "info",
		ShutdownTimeout:    Duration{10 * time.Second},
		SlowQueryThreshold: Duration{200 * time.Millisecond},
		DeployableCacheTTL: Duration{5 * time.Minute},
		ExecutionLogging:   true,
		MaxResults:         1000,
		Version:            "dev",
	}
}

// setDefaults registers every key so that environment overrides apply even
// when the file does not mention the key.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("address", defaults.Address)
	v.SetDefault("store_url", defaults.StoreURL)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout.String())
	v.SetDefault("slow_query_threshold", defaults.SlowQueryThreshold.String())
	v.SetDefault("deployable_cache_ttl", defaults.DeployableCacheTTL.String())
	v.SetDefault("execution_logging", defaults.ExecutionLogging)
	v.SetDefault("max_results", defaults.MaxResults)
	v.SetDefault("version", defaults.Version)
}

// Load resolves the configuration from, in increasing priority, the defaults,
// the file at path (JSON or YAML by extension, skipped when path is empty)
// and MLOPSLITE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		switch extension := strings.ToLower(filepath.Ext(path)); extension {
		case ".yaml", ".yml", ".json":
			v.SetConfigType(strings.TrimPrefix(extension, "."))
		default:
			return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
		}

		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.DecodeHookFuncType(durationHook))); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
