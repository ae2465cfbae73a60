package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nicolagi/dailytasks"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const appName = "dailytasks"

type config struct {
	// Directory holding config.yaml and the local data.
	Dir string `mapstructure:"-"`

	Endpoint     string        `mapstructure:"endpoint"`
	StatusWindow time.Duration `mapstructure:"status_window"`
	Store        string        `mapstructure:"store"` // "file" or "sqlite"
	WireLog      string        `mapstructure:"wire_log"`
	Output       string        `mapstructure:"output"` // "text", "json" or "yaml"

	Log struct {
		File       string `mapstructure:"file"`
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	} `mapstructure:"log"`
}

// defaultDir returns $XDG_CONFIG_HOME/dailytasks, or $HOME/.config/dailytasks.
func defaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".config", appName)
}

// loadConfig reads dir/config.yaml, if present, with DAILYTASKS_* environment variables taking precedence.
func loadConfig(dir string) (*config, error) {
	if dir == "" {
		dir = defaultDir()
	}
	v := viper.New()
	v.SetDefault("endpoint", dailytasks.DefaultEndpoint)
	v.SetDefault("status_window", dailytasks.DefaultStatusWindow)
	v.SetDefault("store", "file")
	v.SetDefault("wire_log", "")
	v.SetDefault("output", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "warning")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return &cfg, nil
}

// setupLogging sends logs to a rotated file if one is configured, to standard error otherwise.
func setupLogging(cfg *config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithFields(log.Fields{
			"level": cfg.Log.Level,
			"cause": err,
		}).Warning("Unknown log level, using warning")
		level = log.WarnLevel
	}
	log.SetLevel(level)
	if cfg.Log.File == "" {
		return
	}
	pathname := cfg.Log.File
	if !filepath.IsAbs(pathname) {
		pathname = filepath.Join(cfg.Dir, pathname)
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(&lumberjack.Logger{
		Filename:   pathname,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
}
