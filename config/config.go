package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type ServerConfig struct {
	HTTPPort     string        `mapstructure:"HTTPPort"`
	Timeout      time.Duration `mapstructure:"HTTPTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
	MaxConns          int32  `mapstructure:"maxConns"`
}

// JWTConfig drives credential signing and the session cookie.
type JWTConfig struct {
	SecretKey        string        `mapstructure:"secretKey"`
	Issuer           string        `mapstructure:"issuer"`
	Expiry           time.Duration `mapstructure:"expiry"`
	CookieExpireDays int           `mapstructure:"cookieExpireDays"`
}

type SecurityConfig struct {
	CORSAllowedOrigins []string      `mapstructure:"corsAllowedOrigins"`
	RateLimitRequests  int           `mapstructure:"rateLimitRequests"`
	RateLimitWindow    time.Duration `mapstructure:"rateLimitWindow"`
	BcryptCost         int           `mapstructure:"bcryptCost"`
	ResetTokenTTL      time.Duration `mapstructure:"resetTokenTTL"`
}

type MailConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"fromEmail"`
	FromName  string `mapstructure:"fromName"`
}

type GeocoderConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type UploadsConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	MaxBytes int64  `mapstructure:"maxBytes"`
	S3       struct {
		Bucket    string `mapstructure:"bucket"`
		Region    string `mapstructure:"region"`
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"accessKey"`
		SecretKey string `mapstructure:"secretKey"`
	} `mapstructure:"s3"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

type Config struct {
	Mode         string `mapstructure:"mode"`
	Dotenv       string `mapstructure:"dotenv"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server   ServerConfig   `mapstructure:"server"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Mail     MailConfig     `mapstructure:"mail"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, secure cookies, HSTS).
func (c *Config) IsProduction() bool {
	return c.Mode == "production"
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// JWT_SECRETKEY overrides jwt.secretKey and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("jwt.secretKey must be set")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("jwt.expiry must be positive")
	}
	switch c.Uploads.Driver {
	case "", "local", "s3":
	default:
		return fmt.Errorf("uploads.driver %q is not supported", c.Uploads.Driver)
	}
	return nil
}
