package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// "postgres" | "memory"
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // "memory" | "redis"
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	RateLimit struct {
		// Max intentos por IP por ventana. 0 desactiva el límite.
		Max    int           `yaml:"max"`
		Window time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`

	// ───────── Broker (inbound assertions) ─────────
	Broker struct {
		Issuer string `yaml:"issuer"`
		// Secret cifrado con secretbox: base64(nonce)|base64(ct).
		// En dev puede ir en claro (sin "|").
		Secret string        `yaml:"secret"`
		MaxAge time.Duration `yaml:"max_age"`
	} `yaml:"broker"`

	// ───────── Provider-side lookups ─────────
	GitHub struct {
		EmailEndpoint string        `yaml:"email_endpoint"`
		Timeout       time.Duration `yaml:"timeout"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"github"`

	Provisioning struct {
		// Marker attribute que señala una cuenta local real.
		Marker       string `yaml:"marker"`
		WelcomeEmail bool   `yaml:"welcome_email"`
	} `yaml:"provisioning"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"` // cifrada con secretbox
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	applyEnv(&c)
	return &c, nil
}

// Default arma una configuración usable sin archivo (memory storage, dev).
func Default() *Config {
	var c Config
	applyDefaults(&c)
	applyEnv(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Broker.MaxAge == 0 {
		c.Broker.MaxAge = 5 * time.Minute
	}
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = 10 * time.Second
	}
	if c.GitHub.CacheTTL == 0 {
		c.GitHub.CacheTTL = 5 * time.Minute
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// applyEnv pisa valores sensibles/operativos con variables de entorno.
func applyEnv(c *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("BROKER_SECRET"); v != "" {
		c.Broker.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
