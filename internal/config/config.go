package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	RoomIdleTimeout time.Duration
	Rules           engine.Rules

	WSRateLimit    float64
	WSRateBurst    int
	WSWriteTimeout time.Duration
	WSReadTimeout  time.Duration

	ShutdownTimeout time.Duration
}

// Load reads .env if present, then the environment. Every malformed value is reported,
// not just the first.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	p := parser{}
	c := Config{
		Port:           getenv("PORT", "8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "console"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		RoomIdleTimeout: p.duration("ROOM_IDLE_TIMEOUT", 5*time.Minute),
		Rules: engine.Rules{
			ConversionSeconds:      p.positiveInt("CONVERSION_SECONDS", engine.DefaultRules.ConversionSeconds),
			GunsStashSeconds:       p.positiveInt("GUNS_STASH_SECONDS", engine.DefaultRules.GunsStashSeconds),
			CultCabinSearchSeconds: p.positiveInt("CULT_CABIN_SEARCH_SECONDS", engine.DefaultRules.CultCabinSearchSeconds),
			GunsPerStash:           p.positiveInt("GUNS_PER_STASH", engine.DefaultRules.GunsPerStash),
		},

		WSRateLimit:    p.float("WS_RATE_LIMIT", 5),
		WSRateBurst:    p.positiveInt("WS_RATE_BURST", 10),
		WSWriteTimeout: p.duration("WS_WRITE_TIMEOUT", 3*time.Second),
		WSReadTimeout:  p.duration("WS_READ_TIMEOUT", 60*time.Second),

		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		p.err = multierr.Append(p.err, fmt.Errorf("LOG_FORMAT: want console or json, got %q", c.LogFormat))
	}
	if p.err != nil {
		return Config{}, p.err
	}
	return c, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parser collects errors so one run reports every bad variable.
type parser struct {
	err error
}

func (p *parser) duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid duration %q", k, v))
		return def
	}
	return d
}

func (p *parser) positiveInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: want a positive integer, got %q", k, v))
		return def
	}
	return n
}

func (p *parser) float(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: want a non-negative number, got %q", k, v))
		return def
	}
	return f
}
