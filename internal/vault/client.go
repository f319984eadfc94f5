package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"
)

// Config holds Vault connection settings
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// BridgeCredentials are the MT5 bridge endpoint and its access token
type BridgeCredentials struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// Client wraps the HashiCorp Vault client for bridge credential storage.
// When Vault is disabled, credentials live in an in-memory cache so
// development setups work without a Vault server.
type Client struct {
	client *api.Client
	config Config
	mu     sync.RWMutex
	cache  map[string]*BridgeCredentials
}

// NewClient creates a new Vault client
func NewClient(cfg Config) (*Client, error) {
	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}

	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]*BridgeCredentials),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
		cache:  make(map[string]*BridgeCredentials),
	}, nil
}

// StoreBridgeCredentials stores credentials for the named environment
// (e.g. "live", "demo")
func (c *Client) StoreBridgeCredentials(ctx context.Context, env string, creds BridgeCredentials) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[env] = &creds
		c.mu.Unlock()
		return nil
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"base_url": creds.BaseURL,
			"token":    creds.Token,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(env), secretData); err != nil {
		return fmt.Errorf("failed to store bridge credentials: %w", err)
	}

	c.mu.Lock()
	c.cache[env] = &creds
	c.mu.Unlock()
	return nil
}

// GetBridgeCredentials retrieves credentials for the named environment
func (c *Client) GetBridgeCredentials(ctx context.Context, env string) (*BridgeCredentials, error) {
	c.mu.RLock()
	if cached, ok := c.cache[env]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if !c.config.Enabled {
		return nil, fmt.Errorf("bridge credentials not found and vault is disabled")
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(env))
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge credentials: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("bridge credentials not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected secret format")
	}

	creds := &BridgeCredentials{}
	if v, ok := data["base_url"].(string); ok {
		creds.BaseURL = v
	}
	if v, ok := data["token"].(string); ok {
		creds.Token = v
	}

	c.mu.Lock()
	c.cache[env] = creds
	c.mu.Unlock()
	return creds, nil
}

// DeleteBridgeCredentials removes credentials for the environment
func (c *Client) DeleteBridgeCredentials(ctx context.Context, env string) error {
	c.mu.Lock()
	delete(c.cache, env)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	if _, err := c.client.Logical().DeleteWithContext(ctx, c.secretPath(env)); err != nil {
		return fmt.Errorf("failed to delete bridge credentials: %w", err)
	}
	return nil
}

func (c *Client) secretPath(env string) string {
	return fmt.Sprintf("%s/data/sevenms/bridge/%s", c.config.MountPath, env)
}
