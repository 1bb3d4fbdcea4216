package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericlevine/matrixscan/internal/config"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{loader: config.NewLoader()}
	root := &cobra.Command{
		Use:   "qrscan",
		Short: "Decode QR Code symbols from images",
		Long: `qrscan finds and decodes QR Code symbols in image files.

Settings come from qrscan.yaml (searched in ., $XDG_CONFIG_HOME/qrscan or
$HOME/.config/qrscan, /etc/qrscan), QRSCAN_* environment variables and flags,
in increasing order of precedence.

Examples:
  qrscan scan photo.jpg
  qrscan scan --try-harder --json *.png
  qrscan config show`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loader.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)
			if f := a.loader.FileUsed(); f != "" {
				a.logger.Debug("configuration loaded", "file", f)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: search for qrscan.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.BoolP("verbose", "v", false, "verbose output (same as --log-level=debug)")

	v := a.loader.Viper()
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = v.BindPFlag("verbose", pf.Lookup("verbose"))

	root.AddCommand(newScanCmd(a), newConfigCmd(a))
	return root
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
