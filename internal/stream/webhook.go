package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// WebhookSync keeps the provider-side address filter aligned with the
// roster. Helius only delivers transactions for wallets registered on the
// webhook, so a roster refresh must be pushed upstream or new wallets stay
// silent until someone edits the webhook by hand.
type WebhookSync struct {
	apiKey    string
	webhookID string
	baseURL   string
	client    *http.Client
	logger    *logrus.Logger
}

func NewWebhookSync(apiKey, webhookID string, logger *logrus.Logger) *WebhookSync {
	if logger == nil {
		logger = logrus.New()
	}
	return &WebhookSync{
		apiKey:    apiKey,
		webhookID: webhookID,
		baseURL:   "https://api.helius.xyz",
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// webhookConfig is the edit-endpoint body. The edit call replaces the whole
// webhook, so everything except the address list is read back and re-sent
// unchanged.
type webhookConfig struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
	AuthHeader       string   `json:"authHeader,omitempty"`
}

// Sync replaces the webhook's registered address list with wallets.
func (s *WebhookSync) Sync(ctx context.Context, wallets []string) error {
	current, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch webhook config: %w", err)
	}
	current.AccountAddresses = wallets
	if err := s.update(ctx, current); err != nil {
		return fmt.Errorf("update webhook config: %w", err)
	}
	s.logger.WithField("wallets", len(wallets)).Info("webhook address filter updated")
	return nil
}

func (s *WebhookSync) fetch(ctx context.Context) (webhookConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.webhookURL(), nil)
	if err != nil {
		return webhookConfig{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return webhookConfig{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return webhookConfig{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var cfg webhookConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return webhookConfig{}, err
	}
	return cfg, nil
}

func (s *WebhookSync) update(ctx context.Context, cfg webhookConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.webhookURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func (s *WebhookSync) webhookURL() string {
	return fmt.Sprintf("%s/v0/webhooks/%s?api-key=%s", s.baseURL, s.webhookID, s.apiKey)
}
