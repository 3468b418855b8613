package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

const DefaultMount = "secret"

// VaultConfig holds Vault connection configuration.
type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	Namespace string `mapstructure:"namespace"`
	Mount     string `mapstructure:"mount"`
}

// Enabled reports whether a Vault server is configured.
func (c VaultConfig) Enabled() bool {
	return strings.TrimSpace(c.Address) != ""
}

type kvReader interface {
	Get(ctx context.Context, secretPath string) (*api.KVSecret, error)
}

// Resolver loads secrets from configuration, files or Vault.
type Resolver struct {
	kv     kvReader
	logger *zap.Logger
}

// NewResolver connects to Vault when cfg is enabled. Without Vault the
// resolver only serves inline and file secrets.
func NewResolver(cfg VaultConfig, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		return &Resolver{logger: logger}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := Load(Source{Name: "vault token", Value: cfg.Token, File: cfg.TokenFile})
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	mount := cfg.Mount
	if mount == "" {
		mount = DefaultMount
	}
	logger.Debug("vault configured", zap.String("address", cfg.Address), zap.String("mount", mount))

	return &Resolver{kv: client.KVv2(mount), logger: logger}, nil
}

// Load resolves src, reading from Vault when a path is set.
func (r *Resolver) Load(ctx context.Context, src Source) (string, error) {
	path := strings.TrimSpace(src.VaultPath)
	if path == "" {
		return Load(src)
	}

	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}
	if r == nil || r.kv == nil {
		return "", fmt.Errorf("%s is stored in vault at %q but vault is not configured", name, path)
	}

	key := strings.TrimSpace(src.VaultKey)
	if key == "" {
		key = "value"
	}

	secret, err := r.kv.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("reading %s from vault path %q: %w", name, path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%s: vault path %q has no data", name, path)
	}

	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("%s: key %q not found at vault path %q", name, key, path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", errors.New(name + ": vault value is not a string")
	}
	if value = strings.TrimSpace(value); value == "" {
		return "", fmt.Errorf("%s: vault value at %q is empty", name, path)
	}
	return value, nil
}
