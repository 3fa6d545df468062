package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Short code generation strategies.
const (
	StrategyRandom   = "random"
	StrategySequence = "sequence"
)

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	ShortCode  `yaml:"short_code"`
	Clicks     `yaml:"clicks"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
}

// ShortCode controls how short codes are allocated.
type ShortCode struct {
	// Length is the number of Base62 characters in a generated code.
	Length int `yaml:"length"`
	// MaxAttempts bounds collision retries for the random strategy.
	MaxAttempts int `yaml:"max_attempts"`
	// Strategy selects the generator: "random" draws uniform Base62
	// codes and retries on collision; "sequence" encodes a durable
	// database sequence, which cannot collide but serializes on the
	// sequence.
	Strategy string `yaml:"strategy"`
	// Idempotent makes repeated shortening of the same original URL
	// return the existing record instead of allocating a new code.
	Idempotent bool `yaml:"idempotent"`
}

var defaultShortCode = ShortCode{
	Length:      6,
	MaxAttempts: 5,
	Strategy:    StrategyRandom,
	Idempotent:  true,
}

// Validate checks the strategy name and the numeric bounds.
func (sc *ShortCode) Validate() error {
	if sc.Strategy != StrategyRandom && sc.Strategy != StrategySequence {
		return fmt.Errorf("unknown short code strategy: %q", sc.Strategy)
	}
	if sc.Length < 4 || sc.Length > 10 {
		return fmt.Errorf("short code length must be between 4 and 10, got %d", sc.Length)
	}
	if sc.MaxAttempts < 1 {
		return fmt.Errorf("short code max attempts must be positive, got %d", sc.MaxAttempts)
	}
	return nil
}

// Clicks controls the asynchronous click accounting pool.
type Clicks struct {
	QueueSize    int           `yaml:"queue_size"`
	Workers      int           `yaml:"workers"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

var defaultClicks = Clicks{
	QueueSize:    1024,
	Workers:      4,
	WriteTimeout: 5 * time.Second,
	DrainTimeout: 10 * time.Second,
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.ShortCode.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.ShortCode = defaultShortCode
	cfg.Clicks = defaultClicks
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
}
