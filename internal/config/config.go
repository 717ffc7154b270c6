package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode     string         `mapstructure:"mode"`
	Port     int            `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	WS       WSConfig       `mapstructure:"ws"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Media    MediaConfig    `mapstructure:"media"`
	Calls    CallsConfig    `mapstructure:"calls"`
	Push     PushConfig     `mapstructure:"push"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type WSConfig struct {
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	RegisterLimit  int           `mapstructure:"register_limit"`
	RegisterWindow time.Duration `mapstructure:"register_window"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type MediaConfig struct {
	AppID          string        `mapstructure:"app_id"`
	AppCertificate string        `mapstructure:"app_certificate"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
}

type CallsConfig struct {
	RingTTL       time.Duration `mapstructure:"ring_ttl"`
	TerminalTTL   time.Duration `mapstructure:"terminal_ttl"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type PushConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	ServerKey string        `mapstructure:"server_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LiveTopic string        `mapstructure:"live_topic"`
}

type DispatchConfig struct {
	Workers int `mapstructure:"workers"`
	Queue   int `mapstructure:"queue"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("ws.read_limit", 32768)
	v.SetDefault("ws.ping_period", "54s")
	v.SetDefault("ws.write_wait", "5s")
	v.SetDefault("ws.send_buffer", 32)
	v.SetDefault("ws.register_limit", 5)
	v.SetDefault("ws.register_window", "1m")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("media.app_id", "")
	v.SetDefault("media.app_certificate", "")
	v.SetDefault("media.token_ttl", "3600s")

	v.SetDefault("calls.ring_ttl", "60s")
	v.SetDefault("calls.terminal_ttl", "10m")
	v.SetDefault("calls.prune_interval", "15s")

	v.SetDefault("push.endpoint", "")
	v.SetDefault("push.server_key", "")
	v.SetDefault("push.timeout", "10s")
	v.SetDefault("push.live_topic", "live_sessions")

	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queue", 256)

	v.SetDefault("storage.path", "./data/ringcast.db")
}

// Load reads config/config.<CONFIG_ENV>.yaml; RINGCAST_* env vars override it.
// Changes to log.level in the file apply without a restart.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v, cfg, err := load(fmt.Sprintf("config/config.%s.yaml", env))
	if err != nil {
		return nil, err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		applyLevel(v.GetString("log.level"))
		log.Info().Str("module", "config").Str("file", e.Name).Str("level", zerolog.GlobalLevel().String()).Msg("config reloaded")
	})
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
	}
	return cfg, nil
}

func load(fileName string) (*viper.Viper, *Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("RINGCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
		v.SetConfigFile("")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyLevel(cfg.Log.Level)
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return v, &cfg, nil
}

func applyLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
