package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "RECEIPTSTUDIO"

type Config struct {
	App       AppConfig
	DB        DBConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Addr          string        `envconfig:"RECEIPTSTUDIO_ADDR" default:":8080"`
	PublicBaseURL string        `envconfig:"RECEIPTSTUDIO_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	LogLevel      string        `envconfig:"RECEIPTSTUDIO_LOG_LEVEL" default:"info"`
	LogFormat     string        `envconfig:"RECEIPTSTUDIO_LOG_FORMAT" default:"json"`
	LogWarnStack  bool          `envconfig:"RECEIPTSTUDIO_LOG_WARN_STACK" default:"false"`
	SessionTTL    time.Duration `envconfig:"RECEIPTSTUDIO_SESSION_TTL" default:"12h"`
	// TrustProxy takes the client IP from X-Forwarded-For. Only set it behind a proxy that overwrites the header.
	TrustProxy bool `envconfig:"RECEIPTSTUDIO_TRUST_PROXY" default:"false"`
}

type DBConfig struct {
	SQLitePath    string `envconfig:"RECEIPTSTUDIO_SQLITE_PATH" default:"receiptstudio.db"`
	MigrationsDir string `envconfig:"RECEIPTSTUDIO_MIGRATIONS_DIR"`
}

type RenderConfig struct {
	ImageScale float64 `envconfig:"RECEIPTSTUDIO_IMAGE_SCALE" default:"2"`
	QRSize     int     `envconfig:"RECEIPTSTUDIO_QR_SIZE" default:"200"`
}

type RateLimitConfig struct {
	LoginPerMinute int `envconfig:"RECEIPTSTUDIO_LOGIN_RATE_PER_MINUTE" default:"10"`
	SharePerMinute int `envconfig:"RECEIPTSTUDIO_SHARE_RATE_PER_MINUTE" default:"60"`
}

type AdminConfig struct {
	Username string `envconfig:"RECEIPTSTUDIO_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"RECEIPTSTUDIO_ADMIN_PASSWORD" default:"Admin123!Receipts"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.App.PublicBaseURL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.App.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.DB.SQLitePath) == "" {
		errs = append(errs, errors.New("sqlite path is required"))
	}
	if c.App.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Render.ImageScale <= 0 {
		errs = append(errs, errors.New("image scale must be positive"))
	}
	if c.Render.QRSize <= 0 {
		errs = append(errs, errors.New("qr size must be positive"))
	}
	if c.RateLimit.LoginPerMinute <= 0 || c.RateLimit.SharePerMinute <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	return errors.Join(errs...)
}
