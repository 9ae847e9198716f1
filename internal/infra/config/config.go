package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Maillman/conference-rag/pkg/errors"
)

// Config aggregates the two local configuration sources consumed by the
// admin CLIs. Keys mirror the project's config.public / config.secret files,
// so the same documents can be shared with the other tooling in the project.
type Config struct {
	Public Public
	Secret Secret
	Cache  Cache
	Verify Verify
}

// Public holds settings that are safe to commit: the project URL and the
// anonymous-tier API key.
type Public struct {
	SupabaseURL string `yaml:"SUPABASE_URL" env:"SUPABASE_URL"`
	AnonKey     string `yaml:"SUPABASE_ANON_KEY" env:"SUPABASE_ANON_KEY"`
}

// Secret holds privileged credentials. DirectDSN is optional and only used
// by the direct-Postgres migration driver.
type Secret struct {
	ServiceKey  string `yaml:"SUPABASE_SERVICE_KEY" env:"SUPABASE_SERVICE_KEY"`
	AccessToken string `yaml:"SUPABASE_ACCESS_TOKEN" env:"SUPABASE_ACCESS_TOKEN"`
	ProjectRef  string `yaml:"SUPABASE_PROJECT_REF" env:"SUPABASE_PROJECT_REF"`
	DirectDSN   string `yaml:"SUPABASE_DB_DSN" env:"SUPABASE_DB_DSN"`
}

// Cache parameterizes the question cache schema instead of baking the
// values into the SQL text.
type Cache struct {
	EmbeddingDim        int     `yaml:"CACHE_EMBEDDING_DIM" env:"CACHE_EMBEDDING_DIM"`
	SimilarityThreshold float64 `yaml:"CACHE_SIMILARITY_THRESHOLD" env:"CACHE_SIMILARITY_THRESHOLD"`
	MaxResults          int     `yaml:"CACHE_MAX_RESULTS" env:"CACHE_MAX_RESULTS"`
}

// Verify controls the convergence polling loop.
type Verify struct {
	Attempts        int `yaml:"VERIFY_ATTEMPTS" env:"VERIFY_ATTEMPTS"`
	IntervalSeconds int `yaml:"VERIFY_INTERVAL_SECONDS" env:"VERIFY_INTERVAL_SECONDS"`
}

// Interval returns the pause between verification attempts.
func (v Verify) Interval() time.Duration {
	return time.Duration(v.IntervalSeconds) * time.Second
}

// Load reads the public and secret configuration files, applies environment
// overrides, and validates that every credential is present. Credentials have
// no defaults: a missing file or a missing required key is fatal.
func Load(publicPath, secretPath string) (*Config, error) {
	cfg := &Config{
		Cache: Cache{
			EmbeddingDim:        1536,
			SimilarityThreshold: 0.95,
			MaxResults:          5,
		},
		Verify: Verify{
			Attempts:        5,
			IntervalSeconds: 3,
		},
	}

	public := publicDocument{Cache: cfg.Cache, Verify: cfg.Verify}
	if err := hydrateFromFile(publicPath, &public); err != nil {
		return nil, err
	}
	cfg.Public = public.Public
	cfg.Cache = public.Cache
	cfg.Verify = public.Verify
	if err := hydrateFromFile(secretPath, &cfg.Secret); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigInvalid, "apply environment overrides", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// publicDocument lets the optional tunables live alongside the public keys in
// one flat file.
type publicDocument struct {
	Public Public `yaml:",inline"`
	Cache  Cache  `yaml:",inline"`
	Verify Verify `yaml:",inline"`
}

func hydrateFromFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, fmt.Sprintf("read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, fmt.Sprintf("parse config file %s", path), err)
	}
	return nil
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"SUPABASE_URL", c.Public.SupabaseURL},
		{"SUPABASE_ANON_KEY", c.Public.AnonKey},
		{"SUPABASE_SERVICE_KEY", c.Secret.ServiceKey},
		{"SUPABASE_ACCESS_TOKEN", c.Secret.AccessToken},
		{"SUPABASE_PROJECT_REF", c.Secret.ProjectRef},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return apperrors.Wrap(apperrors.CodeConfigInvalid, field.key+" cannot be empty", nil)
		}
	}
	if c.Cache.EmbeddingDim <= 0 {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "CACHE_EMBEDDING_DIM must be positive", nil)
	}
	if c.Cache.SimilarityThreshold < 0 || c.Cache.SimilarityThreshold > 1 {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "CACHE_SIMILARITY_THRESHOLD must be within [0, 1]", nil)
	}
	if c.Cache.MaxResults <= 0 {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "CACHE_MAX_RESULTS must be positive", nil)
	}
	if c.Verify.Attempts <= 0 {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "VERIFY_ATTEMPTS must be positive", nil)
	}
	if c.Verify.IntervalSeconds < 0 {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "VERIFY_INTERVAL_SECONDS cannot be negative", nil)
	}
	return nil
}
