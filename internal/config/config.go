// Package config loads service settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	CORSOrigin  string `mapstructure:"cors_origins"`
	Store       Store  `mapstructure:"store"`
	Auth        Auth   `mapstructure:"auth"`
}

type Store struct {
	Driver     string `mapstructure:"driver"`
	MongoURI   string `mapstructure:"mongo_uri"`
	Database   string `mapstructure:"database"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Auth describes how bearer tokens issued by the identity provider are
// verified. Exactly one of HMACSecret or PublicKeyFile is normally set.
type Auth struct {
	ProjectID     string `mapstructure:"project_id"`
	Issuer        string `mapstructure:"issuer"`
	HMACSecret    string `mapstructure:"hmac_secret"`
	PublicKeyFile string `mapstructure:"public_key_file"`
}

var envKeys = map[string]string{
	"environment":          "ENVIRONMENT",
	"host":                 "API_HOST",
	"port":                 "PORT",
	"log_level":            "LOG_LEVEL",
	"cors_origins":         "CORS_ORIGINS",
	"store.driver":         "STORE_DRIVER",
	"store.mongo_uri":      "MONGO_URL",
	"store.database":       "STORE_DATABASE",
	"store.sqlite_path":    "SQLITE_PATH",
	"auth.project_id":      "AUTH_PROJECT_ID",
	"auth.issuer":          "AUTH_ISSUER",
	"auth.hmac_secret":     "AUTH_HMAC_SECRET",
	"auth.public_key_file": "AUTH_PUBLIC_KEY_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("cors_origins", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.database", "ecommerce")
	v.SetDefault("store.sqlite_path", "storefront.db")
	v.SetDefault("auth.project_id", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.hmac_secret", "")
	v.SetDefault("auth.public_key_file", "")
}

// Load reads the config. path may be empty, in which case only defaults and
// the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo", "sqlite":
	default:
		return fmt.Errorf("store.driver must be mongo or sqlite, got %q", c.Store.Driver)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Auth.HMACSecret == "" && c.Auth.PublicKeyFile == "" {
		return fmt.Errorf("auth: one of hmac_secret or public_key_file is required")
	}
	return nil
}

// CORSOrigins splits the comma-separated origin list.
func (c *Config) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) IsProduction() bool  { return c.Environment == "production" }
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TokenIssuer is the expected iss claim. It defaults to the identity
// provider's per-project issuer when only a project id is configured.
func (a Auth) TokenIssuer() string {
	if a.Issuer != "" {
		return a.Issuer
	}
	if a.ProjectID != "" {
		return "https://securetoken.google.com/" + a.ProjectID
	}
	return ""
}
