package psp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tapsnap/tapsnap-backend/pkg/config"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

// Client wraps the payment service provider's platform API. The outbound
// calls are stubbed: only the notification side of the integration is real
// today, so account creation returns a placeholder reference.
type Client struct {
	provider        string
	merchantAccount string
	apiKey          string
}

// PlatformAccount is the PSP-side account linked to a merchant.
type PlatformAccount struct {
	AccountCode string `json:"accountCode"`
	Status      string `json:"status"`
}

// NewClient initializes the provider client from configuration.
func NewClient(ctx context.Context, cfg config.PSPConfig, logg *logger.Logger) (*Client, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		return nil, fmt.Errorf("psp provider is required")
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("psp client initialized (%s)", provider))
	}

	return &Client{
		provider:        provider,
		merchantAccount: strings.TrimSpace(cfg.MerchantAccount),
		apiKey:          strings.TrimSpace(cfg.APIKey),
	}, nil
}

// Provider reports the configured provider name.
func (c *Client) Provider() string {
	if c == nil {
		return ""
	}
	return c.provider
}

// CreatePlatformAccount provisions a PSP platform account for a merchant.
// TODO: call the provider's balance platform API once credentials are issued.
func (c *Client) CreatePlatformAccount(ctx context.Context, merchantID int64, email string) (*PlatformAccount, error) {
	if c == nil {
		return nil, fmt.Errorf("psp client not initialized")
	}
	if merchantID <= 0 {
		return nil, fmt.Errorf("merchant id is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("merchant email is required")
	}
	return &PlatformAccount{
		AccountCode: fmt.Sprintf("ACCT_TEST_%d", merchantID),
		Status:      "stubbed",
	}, nil
}
