package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/clr-host/errors"
)

// Config holds all host configuration.
type Config struct {
	Runtime      RuntimeConfig      `yaml:"runtime"`
	Assembly     AssemblyConfig     `yaml:"assembly"`
	SharedMemory SharedMemoryConfig `yaml:"shared_memory"`
	Logging      LogConfig          `yaml:"logging"`
}

// RuntimeConfig controls runtime discovery.
type RuntimeConfig struct {
	// Root is an explicit runtime installation root searched before SearchPath.
	Root string `envconfig:"DOTNET_ROOT" yaml:"root"`
	// SearchPath is the executable search list, split on os.PathListSeparator.
	SearchPath string `envconfig:"PATH" yaml:"search_path"`
	// Version is the requested runtime version; empty selects the latest installed.
	Version string `envconfig:"CLRHOST_RUNTIME_VERSION" yaml:"version"`
}

// AssemblyConfig names the hosted managed assembly.
type AssemblyConfig struct {
	Name string `envconfig:"CLRHOST_ASSEMBLY" default:"Interop.Core" yaml:"name" validate:"required"`
	Path string `envconfig:"CLRHOST_ASSEMBLY_PATH" default:"./" yaml:"path"`
	Type string `envconfig:"CLRHOST_ASSEMBLY_TYPE" default:"Interop.Core.Examples.EntryPoint" yaml:"type" validate:"required"`
}

// SharedMemoryConfig configures the shared memory arena.
type SharedMemoryConfig struct {
	Name    string `envconfig:"CLRHOST_SHM_NAME" default:"Controller" yaml:"name" validate:"required,excludesall=/\\"`
	Size    uint32 `envconfig:"CLRHOST_SHM_SIZE" default:"8192" yaml:"size" validate:"gt=0,lte=1073741824"`
	Dir     string `envconfig:"CLRHOST_SHM_DIR" default:"/tmp" yaml:"dir"`
	Locking bool   `envconfig:"CLRHOST_SHM_LOCKING" default:"false" yaml:"locking"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"CLRHOST_LOG_LEVEL" default:"info" yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"CLRHOST_LOG_DEV" default:"false" yaml:"development"`
}

var validate = validator.New()

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment and overlays the YAML
// file at path. Keys present in the file win over the environment.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load environment")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Resource(errors.PhaseConfig, []string{path}, "read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		e := errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse config file")
		e.Path = []string{path}
		return nil, e
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid config")
	}
	return nil
}

// Default returns default configuration. Runtime roots are read from the
// current process environment.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Root:       os.Getenv("DOTNET_ROOT"),
			SearchPath: os.Getenv("PATH"),
		},
		Assembly: AssemblyConfig{
			Name: "Interop.Core",
			Path: "./",
			Type: "Interop.Core.Examples.EntryPoint",
		},
		SharedMemory: SharedMemoryConfig{
			Name: "Controller",
			Size: 8192,
			Dir:  "/tmp",
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
