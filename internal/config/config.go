package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	BackendURL      string
	BackendTimeout  time.Duration
	RedisURL        string
	VisitorTTL      time.Duration
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	BailactlDB      string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega a configuração do servidor; REDIS_URL é obrigatório.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}
	return cfg, nil
}

// LoadClient carrega a configuração do cliente de terminal, que não usa Redis.
func LoadClient() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.BackendURL = strings.TrimSpace(getEnv("BACKEND_URL", ""))
	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL obrigatório")
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("BACKEND_URL inválida")
	}

	backendTimeout, err := parseDurationEnv("BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.BackendTimeout = backendTimeout

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	visitorTTL, err := parseDurationEnv("VISITOR_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	if visitorTTL <= 0 {
		return nil, errors.New("VISITOR_TTL deve ser positivo")
	}
	cfg.VisitorTTL = visitorTTL

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 2, Burst: 5}

	cfg.BailactlDB = strings.TrimSpace(getEnv("BAILACTL_DB", "bailactl.db"))
	if cfg.BailactlDB == "" {
		cfg.BailactlDB = "bailactl.db"
	}

	return cfg, nil
}

// DevCookies indica origens locais, onde o cookie de visitante dispensa Secure.
func (c *Config) DevCookies() bool {
	for _, origin := range c.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			return true
		}
	}
	return len(c.AllowOrigins) == 0
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
