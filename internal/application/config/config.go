package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"web"`

	// AdminSecret - ключ подписи JWT для /api/admin, пустой выключает админку
	AdminSecret string `env:"ADMIN_SECRET"`

	STUNURLs []string `env:"STUN_URLS" envDefault:"stun:stun.l.google.com:19302" envSeparator:","`

	Rooms     RoomsConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Coturn    CoturnConfig
}

type RoomsConfig struct {
	CleanupDelay             time.Duration   `env:"ROOM_CLEANUP_DELAY" envDefault:"1h"`
	AllowTransferToNonMember bool            `env:"ROOM_ALLOW_TRANSFER_TO_NON_MEMBER" envDefault:"false"`
	StrictDemote             bool            `env:"ROOM_STRICT_DEMOTE" envDefault:"false"`
	Permanent                []PermanentRoom `env:"PERMANENT_ROOMS" envDefault:"Lobby:50,Gaming:30,Music & Chill:20" envSeparator:","`
}

type RateLimitConfig struct {
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"5m"`
	Retention     time.Duration `env:"RATE_LIMIT_RETENTION" envDefault:"1h"`
}

type WebSocketConfig struct {
	ReadLimit    int64         `env:"WS_READ_LIMIT" envDefault:"1048576"`
	PingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"25s"`
	PongTimeout  time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`
}

type CoturnConfig struct {
	Host string `env:"COTURN_HOST"`

	// Secret - static-auth-secret coturn, нужен для генерации временных кредов для фронта
	Secret string        `env:"COTURN_SECRET"`
	TTL    time.Duration `env:"COTURN_TTL" envDefault:"1h"`
}

func (c CoturnConfig) Enabled() bool {
	return c.Host != "" && c.Secret != ""
}

// PermanentRoom - постоянная комната в формате "name:max_users"
type PermanentRoom struct {
	Name     string
	MaxUsers int
}

// UnmarshalText "name" или "name:max". Лимит отделяется последним двоеточием, в имени двоеточия допустимы.
func (p *PermanentRoom) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))

	i := strings.LastIndex(raw, ":")
	if i < 0 {
		p.Name = raw
		p.MaxUsers = 0
		return nil
	}

	name, maxRaw := raw[:i], raw[i+1:]

	maxUsers, err := strconv.Atoi(strings.TrimSpace(maxRaw))
	if err != nil {
		return fmt.Errorf("permanent room %q: invalid max users: %w", raw, err)
	}

	p.Name = strings.TrimSpace(name)
	p.MaxUsers = maxUsers

	return nil
}

// ICEServers возвращает STUN сервера из конфига
func (c *Config) ICEServers() []webrtc.ICEServer {
	if len(c.STUNURLs) == 0 {
		return nil
	}

	return []webrtc.ICEServer{{URLs: c.STUNURLs}}
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &c, nil
}
