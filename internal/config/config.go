package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/checkrun/internal/env"
	"github.com/garrettladley/checkrun/internal/xslog"
)

type Config struct {
	Port     string             `env:"PORT" envDefault:"8080"`
	Env      appenv.Environment `env:"ENV" envDefault:"development"`
	LogLevel xslog.Level        `env:"LOG_LEVEL" envDefault:"info"`
	GitHub   GitHub             `envPrefix:"GITHUB_"`
	Secrets  Secrets            `envPrefix:"SECRETS_"`
	Redis    Redis              `envPrefix:"REDIS_"`
}

type GitHub struct {
	APIURL     string        `env:"API_URL" envDefault:"https://api.github.com"`
	APIVersion string        `env:"API_VERSION" envDefault:"2022-11-28"`
	UserAgent  string        `env:"USER_AGENT" envDefault:"checkrun"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	CheckName  string        `env:"CHECK_NAME" envDefault:"checkrun"`
	DetailsURL string        `env:"DETAILS_URL" envDefault:"https://docs.github.com/en/rest/checks/runs"`
}

type SecretSource string

const (
	SecretSourceEnv SecretSource = "env"
	SecretSourceSSM SecretSource = "ssm"
)

// Secrets names the three values resolved for every delivery. The names are
// looked up in Source; they are not the secrets themselves.
type Secrets struct {
	Source            SecretSource  `env:"SOURCE" envDefault:"env"`
	WebhookSecretName string        `env:"WEBHOOK_SECRET_NAME,required,notEmpty"`
	AppIDName         string        `env:"APP_ID_NAME,required,notEmpty"`
	PrivateKeyName    string        `env:"PRIVATE_KEY_NAME,required,notEmpty"`
	// CacheTTL of 0 fetches every secret on every delivery. With REDIS_URL set
	// the webhook secret and app id are stored in Redis in plaintext; the
	// private key is only ever cached in process memory.
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"0s"`
}

type Redis struct {
	URL string `env:"URL"`
}

func Read() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Env.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Secrets.Source {
	case SecretSourceEnv, SecretSourceSSM:
	default:
		errs = append(errs, fmt.Errorf("invalid secrets source: %q (valid: env, ssm)", c.Secrets.Source))
	}
	if c.Secrets.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("secrets cache ttl must not be negative: %s", c.Secrets.CacheTTL))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("github timeout must be positive: %s", c.GitHub.Timeout))
	}
	return errors.Join(errs...)
}
