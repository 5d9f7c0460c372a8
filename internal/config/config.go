package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"port":       "http.port",
	"server-url": "mdm.server_url",
	"api-key":    "mdm.api_key",
	"log-level":  "log.level",
}

// ---- Root ----

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	MDM      MDMConfig      `mapstructure:"mdm"`
	Registry RegistryConfig `mapstructure:"registry"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	WebhookPath     string        `mapstructure:"webhook_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Auth            AuthConfig    `mapstructure:"auth"`
}

// Addr is the listen address for the webhook server.
func (h HTTPConfig) Addr() string { return fmt.Sprintf(":%d", h.Port) }

// AuthConfig guards inbound routes with basic auth when Password is set.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (a AuthConfig) Enabled() bool { return a.Password != "" }

type MDMConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	APIKey    string        `mapstructure:"api_key"`
	Username  string        `mapstructure:"username"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

type RegistryConfig struct {
	Backend string      `mapstructure:"backend"` // memory|redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Key         string        `mapstructure:"key"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Load reads embedded defaults, merges user YAML (if provided), applies env overrides (MDMHOOK_*)
// and finally any flags explicitly set on the command line.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (MDMHOOK_MDM_SERVER_URL, ...)
	v.SetEnvPrefix("MDMHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.MDM.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.MDM.ServerURL), "/")
	cfg.Registry.Backend = strings.ToLower(strings.TrimSpace(cfg.Registry.Backend))

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c Config) Validate() error {
	if c.MDM.ServerURL == "" {
		return fmt.Errorf("invalid mdm.server_url: must not be empty")
	}
	if c.MDM.APIKey == "" {
		return fmt.Errorf("invalid mdm.api_key: must not be empty")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port: must be in range 1..65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.HTTP.WebhookPath, "/") {
		return fmt.Errorf("invalid http.webhook_path %q: must start with /", c.HTTP.WebhookPath)
	}
	switch c.Registry.Backend {
	case RegistryMemory:
	case RegistryRedis:
		if strings.TrimSpace(c.Registry.Redis.Addr) == "" {
			return fmt.Errorf("invalid registry.redis.addr: required for redis backend")
		}
	default:
		return fmt.Errorf("invalid registry.backend %q: must be %q or %q", c.Registry.Backend, RegistryMemory, RegistryRedis)
	}
	if c.Kafka.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("invalid kafka.topic: required when brokers are set")
	}
	return nil
}
