package quiver

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v8"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/quiver/resource"
	"github.com/hupe1980/quiver/sketch"
)

// ConfigEnv names the environment variable LoadConfig reads the config file
// path from when none is given.
const ConfigEnv = "QUIVER_CONFIG"

// Config is the file and environment form of the Quantizer options.
//
// Values are read from YAML first and then overridden by QUIVER_*
// environment variables named after the fields (QUIVER_MODE,
// QUIVER_SKETCH_SIZE, QUIVER_MEMORY_LIMIT_BYTES, ...).
type Config struct {
	// Solver mode: exact, accelerated or approximate
	Mode string `yaml:"mode"`
	// Exact solver used on the sketch in approximate mode
	InnerMode string `yaml:"innerMode"`
	// Sketch parameters
	SketchSize int    `yaml:"sketchSize"`
	Sketcher   string `yaml:"sketcher"`
	// Goroutines per construction, 0 means GOMAXPROCS
	Workers int `yaml:"workers"`
	// Resource limits, 0 means unlimited
	MemoryLimitBytes    int64 `yaml:"memoryLimitBytes"`
	MaxConcurrentBuilds int64 `yaml:"maxConcurrentBuilds"`
	IOLimitBytesPerSec  int64 `yaml:"ioLimitBytesPerSec"`
	// DP table ceiling of one construction, 0 or less disables it
	MaxTableBytes int64 `yaml:"maxTableBytes"`
	// Logging: level is debug, info, warn or error; format is text, json or none
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// DefaultConfig returns the configuration matching New without options.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeAccelerated.String(),
		InnerMode:     ModeAccelerated.String(),
		SketchSize:    DefaultSketchSize,
		Sketcher:      sketch.Default.Name(),
		MaxTableBytes: DefaultMaxTableBytes,
		LogLevel:      "info",
		LogFormat:     "none",
	}
}

// LoadConfig reads path (or the file named by QUIVER_CONFIG if path is
// empty) on top of DefaultConfig and applies environment overrides. With no
// file configured only the environment is consulted.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		cFile, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer cFile.Close()

		decoder := yaml.NewDecoder(cFile)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: "QUIVER_", UseFieldNameByDefault: true}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to parse env: %w", err)
	}
	return cfg, nil
}

// Options converts the configuration to Quantizer options.
func (c Config) Options() ([]Option, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	inner, err := ParseMode(c.InnerMode)
	if err != nil {
		return nil, err
	}
	sk, err := sketch.ByName(c.Sketcher)
	if err != nil {
		return nil, &ArgumentError{Arg: "sketcher", Reason: err.Error(), cause: err}
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}

	optFns := []Option{
		WithMode(mode),
		WithInnerMode(inner),
		WithSketcher(sk),
		WithWorkers(c.Workers),
		WithMaxTableBytes(c.MaxTableBytes),
		WithLogger(logger),
	}
	if c.SketchSize != 0 {
		optFns = append(optFns, WithSketchSize(c.SketchSize))
	}
	if c.MemoryLimitBytes > 0 || c.MaxConcurrentBuilds > 0 || c.IOLimitBytesPerSec > 0 {
		optFns = append(optFns, WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:    c.MemoryLimitBytes,
			MaxConcurrentBuilds: c.MaxConcurrentBuilds,
			IOLimitBytesPerSec:  c.IOLimitBytesPerSec,
		})))
	}
	return optFns, nil
}

func (c Config) logger() (*Logger, error) {
	var level slog.Level
	if c.LogLevel != "" {
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, &ArgumentError{Arg: "log level", Reason: err.Error(), cause: err}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "none":
		return NoopLogger(), nil
	case "text":
		return NewTextLogger(level), nil
	case "json":
		return NewJSONLogger(level), nil
	default:
		return nil, argError("log format", "unknown format %q", c.LogFormat)
	}
}
