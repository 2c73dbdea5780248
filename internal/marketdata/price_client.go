package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
)

// PriceClient fetches the SOL/USD price from the Jupiter price API.
type PriceClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewPriceClient(baseURL string) *PriceClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.jup.ag/price/v2"
	}
	return &PriceClient{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("price api http %d", e.StatusCode)
	}
	return fmt.Sprintf("price api http %d: %s", e.StatusCode, b)
}

type priceEnvelope struct {
	Data map[string]struct {
		Price json.Number `json:"price"`
	} `json:"data"`
}

// SolPrice returns the current SOL/USD price.
func (c *PriceClient) SolPrice(ctx context.Context) (float64, error) {
	u := c.BaseURL + "?ids=" + constants.WrappedSolMint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out priceEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}
	entry, ok := out.Data[constants.WrappedSolMint]
	if !ok {
		return 0, fmt.Errorf("price response missing SOL entry")
	}
	price, err := strconv.ParseFloat(entry.Price.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse SOL price %q: %w", entry.Price.String(), err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive SOL price %v", price)
	}
	return price, nil
}
