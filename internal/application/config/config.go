package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	JWTSecret  string `env:"JWT_SECRET,required"`

	// RoomGrace is how long an empty room survives before it is
	// garbage-collected. ReconnectGrace is how long a user keeps room
	// membership after their last connection drops (page refresh).
	RoomGrace      time.Duration `env:"ROOM_GRACE" envDefault:"30s"`
	ReconnectGrace time.Duration `env:"RECONNECT_GRACE" envDefault:"10s"`

	StunServer webrtc.ICEServer

	CoturnServer CoturnConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Translator   TranslatorConfig
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL"`

	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Name     string `env:"POSTGRES_NAME" envDefault:"voicebridge"`
	SSL      string `env:"POSTGRES_SSL" envDefault:"disable"`
}

func (p *PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Name,
		p.SSL,
	)
}

type RedisConfig struct {
	// URL is optional: without Redis the lobby degrades to
	// instance-local visibility.
	URL string `env:"REDIS_URL"`
}

type CoturnConfig struct {
	Host     string `env:"COTURN_HOST"`
	Username string `env:"COTURN_USERNAME"`
	Password string `env:"COTURN_PASSWORD"`

	// Secret is used to mint short-lived TURN credentials for clients.
	Secret string `env:"COTURN_SECRET"`
}

type TranslatorConfig struct {
	URL     string        `env:"TRANSLATOR_URL"`
	TTSURL  string        `env:"TTS_URL"`
	Timeout time.Duration `env:"TRANSLATOR_TIMEOUT" envDefault:"10s"`
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.StunServer = webrtc.ICEServer{
		URLs: []string{"stun:stun.l.google.com:19302"},
	}

	return &c, nil
}
