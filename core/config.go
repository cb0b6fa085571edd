package core

import (
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName   string `mapstructure:"app_name"`
		Env       string `mapstructure:"env"` // dev|test|prod
		Debug     bool   `mapstructure:"debug"`
		SecretKey string `mapstructure:"secret_key"`

		DefaultFromName  string `mapstructure:"default_from_name"`
		DefaultFromEmail string `mapstructure:"default_from_email"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`

		SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
		RollbarToken   string `mapstructure:"rollbar_token"`
	}

	ServerConfig struct {
		Addr               string        `mapstructure:"addr"`
		JWTExpirationDelta time.Duration `mapstructure:"jwt_expiration_delta"`
	}

	DatabaseConfig struct {
		// URL and Key address the hosted backend. Both must be set for the
		// adapter to go remote; see database.Backend.
		URL string `mapstructure:"url"`
		Key string `mapstructure:"key"`
		// Path is where the embedded store lives when no remote is configured.
		Path string `mapstructure:"path"`

		DisableTLS bool `mapstructure:"disable_tls"`
	}
)

func (c *Config) DefaultFrom() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

func (c *Config) TestMode() bool {
	return strings.EqualFold(c.Env, "test")
}

// LoadConfig reads configuration from the environment (plus an optional .env
// file) into a Config. It is called once at process start; the resulting
// struct is passed around explicitly and never re-read.
func LoadConfig() (*Config, error) {
	// .env is a local dev convenience; absence is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}

	v := viper.New()
	v.SetDefault("app_name", "Classmate")
	v.SetDefault("env", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("secret_key", "zb1&9r^+pk-dev-only-2l$a%yc(#8u_=wq4h*5e")
	v.SetDefault("default_from_name", "Classmate")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.jwt_expiration_delta", 24*time.Hour)
	v.SetDefault("database.url", "")
	v.SetDefault("database.key", "")
	v.SetDefault("database.path", "data/classmate.db")
	v.SetDefault("database.disable_tls", false)
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("rollbar_token", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	conf.Env = strings.ToLower(conf.Env)
	if conf.Env == "prod" {
		conf.Debug = false
	}
	return conf, nil
}
