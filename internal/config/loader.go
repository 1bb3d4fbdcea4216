package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the config file base name, searched with any extension
	// viper understands.
	FileName = "qrscan"

	// EnvPrefix prefixes environment overrides, e.g. QRSCAN_DECODE_TRY_HARDER.
	EnvPrefix = "QRSCAN"
)

// Loader reads a Config through its own viper instance. Flags bound to
// Viper() take precedence over the environment, which beats the file.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment handling set up.
func NewLoader() *Loader {
	l := &Loader{v: viper.New()}
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
	l.setDefaults()
	return l
}

// Viper exposes the instance for flag binding.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads configFile, or searches the standard paths when it is empty,
// and returns the validated result. A missing file in the search paths is
// not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(FileName)
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// FileUsed returns the path of the config file read, if any.
func (l *Loader) FileUsed() string { return l.v.ConfigFileUsed() }

// SearchPaths lists the directories searched for qrscan.yaml, in order.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		paths = append(paths, filepath.Join(dir, "qrscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "qrscan"))
	}
	return append(paths, "/etc/qrscan")
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("decode.formats", d.Decode.Formats)
	l.v.SetDefault("decode.try_harder", d.Decode.TryHarder)
	l.v.SetDefault("decode.pure_barcode", d.Decode.PureBarcode)
	l.v.SetDefault("decode.character_set", d.Decode.CharacterSet)
	// no default: an empty list would decode as a non-nil slice
	_ = l.v.BindEnv("decode.allowed_lengths")
	l.v.SetDefault("decode.binarizer", d.Decode.Binarizer)
	l.v.SetDefault("decode.max_side", d.Decode.MaxSide)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("metrics.file", d.Metrics.File)
}
