package nserve

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is what an App needs to run.  Every field can be set in a
// config file or with an NCTL_ environment variable, for example
// NCTL_LOG_LEVEL=debug.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MetricsPath is where prometheus metrics are served.  Empty
	// disables them.
	MetricsPath string `mapstructure:"metrics_path"`
}

// EnvPrefix is prepended to configuration keys to find environment
// variables
const EnvPrefix = "NCTL"

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Addr:            ":3000",
		LogLevel:        "info",
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// LoadConfig reads configuration from path (if not empty) and the
// environment.  The file format comes from the file's extension.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	dflt := DefaultConfig()
	v.SetDefault("addr", dflt.Addr)
	v.SetDefault("log_level", dflt.LogLevel)
	v.SetDefault("max_body_bytes", dflt.MaxBodyBytes)
	v.SetDefault("jwt_secret", dflt.JWTSecret)
	v.SetDefault("shutdown_timeout", dflt.ShutdownTimeout)
	v.SetDefault("metrics_path", dflt.MetricsPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if cfg.MetricsPath != "" && !strings.HasPrefix(cfg.MetricsPath, "/") {
		return Config{}, errors.Errorf("metrics_path %q must start with /", cfg.MetricsPath)
	}
	return cfg, nil
}
