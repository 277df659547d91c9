package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/pkg/writers"
)

// EnvPrefix prefixes environment overrides, e.g. SALESREPORT_STORE_PATH.
const EnvPrefix = "SALESREPORT"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "salesreport.yaml"

// --- Configuration Structs ---

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Store  store.Config  `mapstructure:"store"`
	Report core.AgeRange `mapstructure:"report"`
	Output OutputConfig  `mapstructure:"output"`
	Server ServerConfig  `mapstructure:"server"`
	Log    LogConfig     `mapstructure:"log"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("store.driver", store.BackendSQLite)
	v.SetDefault("store.path", store.DefaultPath)
	v.SetDefault("store.driver_path", "")
	v.SetDefault("report.age_min", core.DefaultAgeRange.Min)
	v.SetDefault("report.age_max", core.DefaultAgeRange.Max)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", writers.TypeCSV)
	v.SetDefault("server.port", 5555)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "salesreport.log")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// --- Load Configuration ---

// Load reads configPath into v. An empty path looks for DefaultFile in the
// working directory and silently falls back to defaults when it is absent.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// LoadConfig is Load with a fresh viper instance.
func LoadConfig(configPath string) (*Config, error) {
	return Load(New(), configPath)
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report validation failed: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	return validate(c.Server.Port > 0 && c.Server.Port < 65536, "server port %d out of range", c.Server.Port)
}

func (oc *OutputConfig) Validate() error {
	if err := validate(oc.Dir != "", "output directory is required"); err != nil {
		return err
	}
	return validate(writers.DefaultFactory.Supports(oc.Format), "unsupported output format: %s", oc.Format)
}
