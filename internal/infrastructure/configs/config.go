package configs

import (
	"fmt"
	"time"

	"github.com/codecollab/codecollab/internal/infrastructure/env"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Store       StoreConfig       `koanf:"store"`
	Presence    PresenceConfig    `koanf:"presence"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Messaging   MessagingConfig   `koanf:"messaging"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type StoreConfig struct {
	// Driver selects the progress store backend: "mongo" or "memory".
	Driver            string        `koanf:"driver"`
	URI               string        `koanf:"uri"`
	Database          string        `koanf:"database"`
	ConnectionTimeout time.Duration `koanf:"connection_timeout"`
}

type PresenceConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Staleness     time.Duration `koanf:"staleness"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type MessagingConfig struct {
	// Empty URI disables the AMQP room-event publisher.
	AmqpURI string `koanf:"amqp_uri"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 5000)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	setDefault(k, "store.driver", "mongo")
	setDefault(k, "store.uri", "mongodb://localhost:27017")
	setDefault(k, "store.database", "codecollab")
	setDefault(k, "store.connection_timeout", 20*time.Second)

	setDefault(k, "presence.sweep_interval", time.Second)
	setDefault(k, "presence.staleness", 5*time.Second)

	setDefault(k, "rateLimiter.requestsPerTimeFrame", 100)
	setDefault(k, "rateLimiter.timeFrame", time.Minute)

	setDefault(k, "messaging.amqp_uri", "")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if driver := env.GetString("STORE_DRIVER", ""); driver != "" {
		k.Set("store.driver", driver)
	}
	if uri := env.GetString("MONGO_URI", ""); uri != "" {
		k.Set("store.uri", uri)
	}
	if database := env.GetString("MONGO_DATABASE", ""); database != "" {
		k.Set("store.database", database)
	}

	if amqpURI := env.GetString("RABBITMQ_URI", ""); amqpURI != "" {
		k.Set("messaging.amqp_uri", amqpURI)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
