package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DeliveryLog      = "log"
	DeliveryRabbitMQ = "rabbitmq"

	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	OTP        `yaml:"otp"`
	Session    `yaml:"session"`
	Password   `yaml:"password"`
	RabbitMQ   `yaml:"rabbitmq"`
	SMTP       `yaml:"smtp"`
	Log        `yaml:"log"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:5000"`
	Timeout        time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
}

type Postgres struct {
	Host           string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User           string        `yaml:"user" env:"DB_USER" env-required:"true"`
	Password       string        `yaml:"password" env:"DB_PASSWORD" env-required:"true"`
	DBName         string        `yaml:"dbname" env:"DB_NAME" env-default:"papercart_db"`
	SSLMode        string        `yaml:"sslmode" env-default:"disable"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"5s"`
}

// Redis.Address left empty selects the in-process store.
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env-default:"0"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"2s"`
	OpTimeout   time.Duration `yaml:"op_timeout" env-default:"1s"`
}

type OTP struct {
	TTL              time.Duration `yaml:"ttl" env-default:"5m"`
	SignupPayloadTTL time.Duration `yaml:"signup_payload_ttl" env-default:"10m"`
	ExposeCode       bool          `yaml:"expose_code" env:"OTP_EXPOSE_CODE" env-default:"false"`
	Delivery         string        `yaml:"delivery" env:"OTP_DELIVERY" env-default:"log"`
}

type Session struct {
	TTL       time.Duration `yaml:"ttl" env-default:"720h"`
	LegacyTTL time.Duration `yaml:"legacy_ttl" env-default:"24h"`
}

type Password struct {
	Scheme string `yaml:"scheme" env:"PASSWORD_SCHEME" env-default:"sha256"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env-default:"otp_delivery"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

type Log struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
}

// Load reads the YAML file at configPath, applies env overrides and checks
// the combination of settings.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to read config: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	switch c.OTP.Delivery {
	case DeliveryLog, DeliveryRabbitMQ:
	default:
		return fmt.Errorf("unknown otp delivery %q", c.OTP.Delivery)
	}

	switch c.Password.Scheme {
	case SchemeSHA256, SchemeBcrypt:
	default:
		return fmt.Errorf("unknown password scheme %q", c.Password.Scheme)
	}

	if c.OTP.TTL <= 0 || c.OTP.SignupPayloadTTL <= 0 {
		return errors.New("otp ttls must be positive")
	}

	if c.OTP.Delivery == DeliveryRabbitMQ && c.RabbitMQ.URL == "" {
		return errors.New("rabbitmq url is required for rabbitmq delivery")
	}

	if c.Env == EnvProd {
		// codes never leave the server in a response or a log line in production
		c.OTP.ExposeCode = false

		if c.OTP.Delivery != DeliveryRabbitMQ {
			return errors.New("prod requires rabbitmq otp delivery")
		}
	}

	return nil
}

// DSN builds the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
		int(p.ConnectTimeout.Seconds()),
	)
}
