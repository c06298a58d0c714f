package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: open %q: %w (did you mean to pass -config?)", path, err)
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Enrichment == (EnrichmentConfig{}) {
		cfg.Enrichment = DefaultEnrichmentConfig()
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.Role.IsValid() {
		errs = append(errs, fmt.Errorf("server.role %q is invalid; valid values: server, client", cfg.Server.Role))
	}
	if cfg.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", cfg.Server.Port))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Dataset.Path == "" {
		errs = append(errs, errors.New("dataset.path is required"))
	}
	if cfg.Dataset.Prefix == "" {
		errs = append(errs, errors.New("dataset.prefix is required"))
	}
	if cfg.Dataset.OutputPath == "" {
		errs = append(errs, errors.New("dataset.output_path is required"))
	}
	if !cfg.Enrichment.SecurityMode {
		if cfg.Dataset.PeerPath == "" {
			errs = append(errs, errors.New("dataset.peer_path is required when enrichment.security_mode is false"))
		}
		if cfg.Dataset.PeerPrefix == "" {
			errs = append(errs, errors.New("dataset.peer_prefix is required when enrichment.security_mode is false"))
		}
	}

	if cfg.Enrichment.Sigma <= 0 || cfg.Enrichment.Sigma > 1 {
		errs = append(errs, fmt.Errorf("enrichment.sigma %.4f is out of range (0, 1]", cfg.Enrichment.Sigma))
	}
	if cfg.Enrichment.Delta < 0 {
		errs = append(errs, fmt.Errorf("enrichment.delta %.4f must not be negative", cfg.Enrichment.Delta))
	}
	if cfg.Enrichment.K <= 0 {
		errs = append(errs, fmt.Errorf("enrichment.k must be positive, got %d", cfg.Enrichment.K))
	}
	if cfg.Enrichment.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("enrichment.epsilon must be positive, got %.4f", cfg.Enrichment.Epsilon))
	}

	if cfg.Providers.Embeddings.Name == "" {
		errs = append(errs, errors.New("providers.embeddings.name is required"))
	}
	if cfg.Providers.Predictor.Name == "" {
		errs = append(errs, errors.New("providers.predictor.name is required"))
	}

	if len(cfg.Encryption.LogQ) > 0 && cfg.Encryption.LogN <= 0 {
		errs = append(errs, errors.New("encryption.log_n is required when encryption.log_q is set"))
	}

	return errors.Join(errs...)
}
