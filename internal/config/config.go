package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultLiveKitURL = "ws://localhost:7880"
	defaultAPIURL     = "http://localhost:8000/api/v1"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	LiveKitURL    string `mapstructure:"livekit_url"`
	APIURL        string `mapstructure:"api_url"`
	AutoSubscribe bool   `mapstructure:"auto_subscribe"`

	ConnectLimit       int           `mapstructure:"connect_limit"`
	ConnectInterval    time.Duration `mapstructure:"connect_interval"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`

	v *viper.Viper
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	setDefaults(v)
	// Environment overrides for the service endpoints.
	_ = v.BindEnv("livekit_url", "LIVEKIT_URL")
	_ = v.BindEnv("api_url", "API_URL")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	logger := log.With().Str("module", "config").Logger()
	if err := v.ReadInConfig(); err != nil {
		logger.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		logger.Info().Str("file", fileName).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if !v.IsSet("livekit_url") {
		logger.Warn().Str("default", defaultLiveKitURL).Msg("LIVEKIT_URL is not set, using default")
	}
	if !v.IsSet("api_url") {
		logger.Warn().Str("default", defaultAPIURL).Msg("API_URL is not set, using default")
	}
	logger.Info().
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("livekit", cfg.LiveKitURL).
		Msg("config ready")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("log_level", "info")
	v.SetDefault("auto_subscribe", true)
	v.SetDefault("connect_limit", 5)
	v.SetDefault("connect_interval", "10s")
	v.SetDefault("session_idle_timeout", "30m")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LiveKitURL == "" {
		cfg.LiveKitURL = defaultLiveKitURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.v = v
	return &cfg, nil
}

// ApplyLogLevel sets the global zerolog level. Unknown levels keep the
// current one.
func (c *Config) ApplyLogLevel() {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		log.Warn().Str("module", "config").Str("level", c.LogLevel).Msg("unknown log level, keeping current")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// Watch re-reads the config file on change and hands the new values to
// onChange. Only settings that are safe to swap at runtime should be
// consumed there.
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(c.v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Msg("reload failed")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config changed")
		onChange(next)
	})
	c.v.WatchConfig()
}
