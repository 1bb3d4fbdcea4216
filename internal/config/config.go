// Package config holds the qrscan settings and loads them from a file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/charset"
)

// Config is the complete qrscan configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Decode  DecodeConfig  `mapstructure:"decode" yaml:"decode" json:"decode"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch" json:"batch"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DecodeConfig mirrors matrixscan.Hints plus the image preparation knobs.
type DecodeConfig struct {
	Formats        []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	TryHarder      bool     `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	PureBarcode    bool     `mapstructure:"pure_barcode" yaml:"pure_barcode" json:"pure_barcode"`
	CharacterSet   string   `mapstructure:"character_set" yaml:"character_set" json:"character_set"`
	AllowedLengths []int    `mapstructure:"allowed_lengths" yaml:"allowed_lengths" json:"allowed_lengths"`
	Binarizer      string   `mapstructure:"binarizer" yaml:"binarizer" json:"binarizer"`
	// MaxSide downscales larger images before binarizing. 0 disables it.
	MaxSide int `mapstructure:"max_side" yaml:"max_side" json:"max_side"`
}

// BatchConfig controls concurrent decoding of several images.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// MetricsConfig names the Prometheus textfile written after a run.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	binarizers = []string{"hybrid", "global"}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Decode: DecodeConfig{
			Formats:   []string{matrixscan.FormatQRCode.String()},
			Binarizer: "hybrid",
		},
		Batch: BatchConfig{Workers: 0},
	}
}

// Validate checks every field and joins all problems found.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level %q must be one of %v", c.LogLevel, logLevels))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.LogFormat)) {
		errs = append(errs, fmt.Errorf("log_format %q must be one of %v", c.LogFormat, logFormats))
	}
	for _, f := range c.Decode.Formats {
		if _, err := matrixscan.ParseFormat(f); err != nil {
			errs = append(errs, fmt.Errorf("decode.formats: %w", err))
		}
	}
	if c.Decode.CharacterSet != "" {
		if _, err := charset.Lookup(c.Decode.CharacterSet); err != nil {
			errs = append(errs, fmt.Errorf("decode.character_set: %w", err))
		}
	}
	for _, n := range c.Decode.AllowedLengths {
		if n < 1 {
			errs = append(errs, fmt.Errorf("decode.allowed_lengths: %d is not positive", n))
		}
	}
	if c.Decode.Binarizer != "" && !slices.Contains(binarizers, c.Decode.Binarizer) {
		errs = append(errs, fmt.Errorf("decode.binarizer %q must be one of %v", c.Decode.Binarizer, binarizers))
	}
	if c.Decode.MaxSide < 0 {
		errs = append(errs, fmt.Errorf("decode.max_side %d is negative", c.Decode.MaxSide))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers %d is negative", c.Batch.Workers))
	}
	return errors.Join(errs...)
}

// Hints converts the decode section. The config must be valid.
func (c *Config) Hints() (*matrixscan.Hints, error) {
	h := &matrixscan.Hints{
		TryHarder:      c.Decode.TryHarder,
		PureBarcode:    c.Decode.PureBarcode,
		CharacterSet:   c.Decode.CharacterSet,
		AllowedLengths: slices.Clone(c.Decode.AllowedLengths),
	}
	for _, name := range c.Decode.Formats {
		f, err := matrixscan.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(h.PossibleFormats, f) {
			h.PossibleFormats = append(h.PossibleFormats, f)
		}
	}
	return h, nil
}

// Dump renders the configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
