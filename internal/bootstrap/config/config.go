package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Roles    RolesConfig    `mapstructure:"roles"`
	Severity SeverityConfig `mapstructure:"severity"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RemoteConfig points at the system of record the outbox drains to.
type RemoteConfig struct {
	URL            string `mapstructure:"url"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RolesConfig optionally overrides the built-in role capability table.
type RolesConfig struct {
	File string `mapstructure:"file"`
}

// SeverityConfig optionally seeds the settings singleton at init time.
type SeverityConfig struct {
	Profile string `mapstructure:"profile"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Remote.SubjectPrefix == "" {
		return Config{}, errors.New("remote.subject_prefix is required")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("remote_url", cfg.Remote.URL),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "faultline")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".faultline/state/faultline.sqlite")
	v.SetDefault("remote.url", "nats://127.0.0.1:4222")
	v.SetDefault("remote.subject_prefix", "defects.remote")
	v.SetDefault("remote.timeout_seconds", 5)
	v.SetDefault("http.addr", ":8870")
	v.SetDefault("roles.file", "")
	v.SetDefault("severity.profile", "")
}
