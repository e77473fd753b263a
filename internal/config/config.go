// Package config carga la configuración del servicio: YAML opcional más
// overrides por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env" env:"APP_ENV"`
		LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
		BaseURL         string        `yaml:"base_url" env:"BASE_URL"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		// Respetar X-Forwarded-Host/Proto al armar el redirect_uri.
		TrustProxy      bool          `yaml:"trust_proxy" env:"TRUST_PROXY"`
	} `yaml:"server"`

	Storage struct {
		// sqlite | postgres | memory
		Driver       string `yaml:"driver" env:"STORAGE_DRIVER"`
		DSN          string `yaml:"dsn" env:"STORAGE_DSN"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"STORAGE_MAX_OPEN_CONNS"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string `yaml:"driver" env:"CACHE_DRIVER"`
		Redis  struct {
			Addr     string `yaml:"addr" env:"REDIS_ADDR"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"REDIS_DB"`
			Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Files struct {
		Root    string `yaml:"root" env:"FILES_ROOT"`
		BaseURL string `yaml:"base_url" env:"FILES_BASE_URL"`
	} `yaml:"files"`

	Settings struct {
		Path string `yaml:"path" env:"SETTINGS_PATH"`
	} `yaml:"settings"`

	Session struct {
		Cookie string        `yaml:"cookie" env:"SESSION_COOKIE"`
		TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL"`
		Secure bool          `yaml:"secure" env:"SESSION_SECURE"`
	} `yaml:"session"`

	Hello struct {
		// subject | email | hybrid
		Policy          string        `yaml:"account_policy" env:"HELLO_ACCOUNT_POLICY"`
		WalletURL       string        `yaml:"wallet_url" env:"HELLO_WALLET_URL"`
		WalletTimeout   time.Duration `yaml:"wallet_timeout" env:"HELLO_WALLET_TIMEOUT"`
		LogoURL         string        `yaml:"logo_url" env:"LOGO_URL"`
		PictureTimeout  time.Duration `yaml:"picture_fetch_timeout" env:"PICTURE_FETCH_TIMEOUT"`
		PictureMaxBytes int64         `yaml:"picture_max_bytes" env:"PICTURE_MAX_BYTES"`
	} `yaml:"hello"`

	Admin struct {
		// Vacío = endpoints admin sin protección (solo dev).
		APIKey string `yaml:"api_key" env:"ADMIN_API_KEY"`
	} `yaml:"admin"`

	Observability struct {
		OTELEndpoint    string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
		MetricsDisabled bool   `yaml:"metrics_disabled" env:"METRICS_DISABLED"`
	} `yaml:"observability"`
}

// Load lee path (si no está vacío), aplica el entorno encima y completa
// defaults. Un path inexistente es error; path vacío arranca solo con env.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := ParseEnv(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseEnv pisa target con las variables de entorno presentes.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	// La escritura incluye el fetch de la foto de perfil.
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = "data/hellocoop.db"
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellocoop"
	}

	if c.Files.Root == "" {
		c.Files.Root = "data/files"
	}
	if c.Files.BaseURL == "" {
		c.Files.BaseURL = c.Server.BaseURL + "/files"
	}
	c.Files.BaseURL = strings.TrimRight(c.Files.BaseURL, "/")

	if c.Settings.Path == "" {
		c.Settings.Path = "data/hellocoop.settings.yaml"
	}

	if c.Session.Cookie == "" {
		c.Session.Cookie = "hc_session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}

	if c.Hello.Policy == "" {
		c.Hello.Policy = "subject"
	}
	if c.Hello.WalletURL == "" {
		c.Hello.WalletURL = "https://wallet.hello.coop"
	}
	c.Hello.WalletURL = strings.TrimRight(c.Hello.WalletURL, "/")
	if c.Hello.WalletTimeout == 0 {
		c.Hello.WalletTimeout = 10 * time.Second
	}
	if c.Hello.PictureTimeout == 0 {
		c.Hello.PictureTimeout = 10 * time.Second
	}
	if c.Hello.PictureMaxBytes == 0 {
		c.Hello.PictureMaxBytes = 5 << 20
	}
}

// IsProd indica si el entorno es producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// Validate revisa los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: STORAGE_DSN is required for postgres")
	}
	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}
	switch c.Hello.Policy {
	case "subject", "email", "hybrid":
	default:
		return fmt.Errorf("config: unknown account policy %q", c.Hello.Policy)
	}
	if c.Hello.PictureTimeout < 0 || c.Session.TTL < 0 {
		return fmt.Errorf("config: durations must be positive")
	}
	if c.IsProd() && c.Admin.APIKey == "" {
		return fmt.Errorf("config: ADMIN_API_KEY is required in prod")
	}
	return nil
}
