package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/accessor"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/coerce"
	domaincriteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/domain"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/expression"
)

// EnvPrefix prefixes the environment variables Load reads, e.g.
// ASCETICDSL_CRITERIA_PAGE_SIZE.
const EnvPrefix = "ASCETICDSL"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Criteria CriteriaConfig `mapstructure:"criteria"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type CriteriaConfig struct {
	FtsField string `mapstructure:"fts_field"`
	Lang     string `mapstructure:"lang"`
	PageSize int    `mapstructure:"page_size"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`  // DEBUG, INFO, WARN, ERROR
	Format    string `mapstructure:"format"` // json, text
	AddSource bool   `mapstructure:"add_source"`
}

// Load reads the configuration file at path, or asceticdsl.yaml in the working
// directory when path is empty, then lets environment variables override it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("asceticdsl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if cfg.Criteria.PageSize < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "criteria.page_size %d", cfg.Criteria.PageSize)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("criteria.fts_field", domaincriteria.DefaultFtsField)
	v.SetDefault("criteria.lang", "")
	v.SetDefault("criteria.page_size", domaincriteria.DefaultPageSize)
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Apply installs cfg as the process-wide criteria defaults and hands the logger to
// every package that logs. The logger writes to stderr.
func Apply(cfg *Config) *slog.Logger {
	logger := NewLogger(cfg.Log, os.Stderr)
	domaincriteria.SetDefaults(domaincriteria.Defaults{
		FtsField: cfg.Criteria.FtsField,
		Lang:     cfg.Criteria.Lang,
		PageSize: cfg.Criteria.PageSize,
	})
	coerce.SetLogger(logger)
	accessor.SetLogger(logger)
	expression.SetLogger(logger)
	return logger
}
