package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/pfwatch/internal/duckdb"
	"github.com/tinytelemetry/pfwatch/internal/filter"
	"github.com/tinytelemetry/pfwatch/internal/model"
)

const (
	defaultUpdateInterval = model.DefaultUpdateInterval
	defaultTCPAddr        = model.DefaultTCPAddr
	defaultAPIAddr        = model.DefaultAPIAddr
	defaultMuxBufferSize  = DefaultMuxBuffer
	defaultQueryTimeout   = duckdb.DefaultQueryTimeout
	defaultMirrorBatch    = duckdb.DefaultMirrorBatchSize
	defaultMirrorInterval = duckdb.DefaultMirrorInterval
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	filter.Criteria `mapstructure:",squash"`

	LogFile        string        `mapstructure:"log-file"`
	Follow         bool          `mapstructure:"follow"`
	TCPEnabled     bool          `mapstructure:"tcp-enabled"`
	TCPAddr        string        `mapstructure:"tcp-addr"`
	MuxBufferSize  int           `mapstructure:"mux-buffer-size"`
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIAddr        string        `mapstructure:"api-addr"`
	MirrorEnabled  bool          `mapstructure:"mirror-enabled"`
	MirrorBatch    int           `mapstructure:"mirror-batch-size"`
	MirrorInterval time.Duration `mapstructure:"mirror-interval"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	UpdateInterval time.Duration `mapstructure:"update-interval"`
	Headless       bool          `mapstructure:"headless"`
	DumpFilter     bool          `mapstructure:"dump-filter"`
	StateDir       string        `mapstructure:"state-dir"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

// loadConfig merges flags, PFWATCH_* environment variables, the config
// file and defaults, in that order of precedence.
func loadConfig(configPath string, flags *pflag.FlagSet, args []string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PFWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("tcp-enabled", false)
	v.SetDefault("tcp-addr", defaultTCPAddr)
	v.SetDefault("mux-buffer-size", defaultMuxBufferSize)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("mirror-enabled", false)
	v.SetDefault("mirror-batch-size", defaultMirrorBatch)
	v.SetDefault("mirror-interval", defaultMirrorInterval)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("update-interval", defaultUpdateInterval)
	v.SetDefault("state-dir", filepath.Join(home, ".local", "state", "pfwatch"))

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return cfg, fmt.Errorf("binding flags: %w", err)
		}
	}
	if len(args) > 0 {
		v.Set("log-file", args[0])
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "pfwatch", "config.yml"))
	}
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if strings.HasPrefix(cfg.StateDir, "~/") {
		cfg.StateDir = filepath.Join(home, cfg.StateDir[2:])
	}
	if strings.HasPrefix(cfg.LogFile, "~/") {
		cfg.LogFile = filepath.Join(home, cfg.LogFile[2:])
	}

	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	var errs []error
	if c.TCPEnabled {
		if _, _, err := net.SplitHostPort(c.TCPAddr); err != nil {
			errs = append(errs, fmt.Errorf("invalid tcp-addr: %w", err))
		}
	}
	if c.APIEnabled {
		if _, _, err := net.SplitHostPort(c.APIAddr); err != nil {
			errs = append(errs, fmt.Errorf("invalid api-addr: %w", err))
		}
	}
	if c.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid update-interval: %s", c.UpdateInterval))
	}
	if c.MirrorInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid mirror-interval: %s", c.MirrorInterval))
	}
	if c.MirrorBatch <= 0 {
		errs = append(errs, fmt.Errorf("invalid mirror-batch-size: %d", c.MirrorBatch))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid query-timeout: %s", c.QueryTimeout))
	}
	if c.Follow && c.LogFile == "" {
		errs = append(errs, errors.New("invalid follow: requires a log file"))
	}
	return errors.Join(errs...)
}
