package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Provider fetches the current trader roster from the analytics backend.
type Provider interface {
	Fetch(ctx context.Context) (map[string]models.TraderProfile, error)
}

// HTTPProvider reads a materialized analytics query (Dune results API shape):
// {"result": {"rows": [{"wallet": ..., "trader_category": ..., ...}]}}.
type HTTPProvider struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

func NewHTTPProvider(url, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		URL:    strings.TrimSpace(url),
		APIKey: strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type resultRow struct {
	Wallet         string  `json:"wallet"`
	TraderCategory string  `json:"trader_category"`
	WinRate        float64 `json:"win_rate"`
	AvgHoldHours   float64 `json:"avg_hold_hours"`
	TradesPerDay   float64 `json:"trades_per_day"`
	TotalProfits   float64 `json:"total_profits"`
}

type resultEnvelope struct {
	Result struct {
		Rows []resultRow `json:"rows"`
	} `json:"result"`
}

func (p *HTTPProvider) Fetch(ctx context.Context) (map[string]models.TraderProfile, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("roster url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if p.APIKey != "" {
		req.Header.Set("X-Dune-Api-Key", p.APIKey)
	}

	res, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("roster fetch http %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out resultEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode roster response: %w", err)
	}
	if len(out.Result.Rows) == 0 {
		return nil, fmt.Errorf("roster response contained no rows")
	}

	profiles := make(map[string]models.TraderProfile, len(out.Result.Rows))
	for _, row := range out.Result.Rows {
		if row.Wallet == "" {
			continue
		}
		profiles[row.Wallet] = models.TraderProfile{
			Wallet:       row.Wallet,
			Category:     models.ParseCategory(row.TraderCategory),
			WinRate:      row.WinRate,
			AvgHoldHours: row.AvgHoldHours,
			TradesPerDay: row.TradesPerDay,
			TotalProfits: row.TotalProfits,
		}
	}
	return profiles, nil
}
