package provider

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a provider override file. Empty fields
// leave the base configuration untouched.
type fileConfig struct {
	Name             string   `yaml:"name"`
	AuthorizeURL     string   `yaml:"authorize_url"`
	TokenURL         string   `yaml:"token_url"`
	ResourceOwnerURL string   `yaml:"resource_owner_url"`
	RevokeURL        string   `yaml:"revoke_url"`
	DefaultScopes    []string `yaml:"default_scopes"`
	ScopeSeparator   string   `yaml:"scope_separator"`
	OwnerIDField     string   `yaml:"owner_id_field"`
	TokenOwnerField  string   `yaml:"token_owner_field"`
	APIKeyHeader     string   `yaml:"api_key_header"`

	AllowInsecureLoopback bool `yaml:"allow_insecure_loopback"`
}

// LoadFile applies the YAML overrides in path on top of base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read provider file: %w", err)
	}
	return Parse(data, base)
}

// Parse applies YAML overrides to base and returns the merged configuration.
func Parse(data []byte, base Config) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse provider file: %w", err)
	}

	cfg := base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Name, fc.Name)
	set(&cfg.Endpoint.AuthURL, fc.AuthorizeURL)
	set(&cfg.Endpoint.TokenURL, fc.TokenURL)
	set(&cfg.ResourceOwnerURL, fc.ResourceOwnerURL)
	set(&cfg.RevokeURL, fc.RevokeURL)
	set(&cfg.ScopeSeparator, fc.ScopeSeparator)
	set(&cfg.OwnerIDField, fc.OwnerIDField)
	set(&cfg.TokenOwnerField, fc.TokenOwnerField)
	set(&cfg.APIKeyHeader, fc.APIKeyHeader)
	if fc.AllowInsecureLoopback {
		cfg.AllowInsecure = true
	}
	if len(fc.DefaultScopes) > 0 {
		cfg.DefaultScopes = append([]string(nil), fc.DefaultScopes...)
	}
	return cfg, nil
}
