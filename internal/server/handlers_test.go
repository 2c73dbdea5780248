package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/normalizer"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

type captureIngestor struct {
	batches [][]normalizer.TransactionRecord
}

func (c *captureIngestor) Enqueue(_ context.Context, records []normalizer.TransactionRecord) {
	c.batches = append(c.batches, records)
}

func testEcho(h *Handlers, cfg ServerConfig) *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, h, cfg)
	return e
}

func testHandlers(ing *captureIngestor) *Handlers {
	holder := roster.NewHolder(roster.NewSnapshot(map[string]models.TraderProfile{
		"w1": {Wallet: "w1", Category: models.CategoryInsider},
	}, []models.TraderCategory{models.CategoryInsider}))
	return &Handlers{
		Pipeline: ing,
		Roster:   holder,
	}
}

func TestHeliusWebhook_AcksAndEnqueues(t *testing.T) {
	ing := &captureIngestor{}
	e := testEcho(testHandlers(ing), ServerConfig{})

	body := `[{"signature":"sig1","feePayer":"w1"},{"signature":"sig2","feePayer":"w2"}]`
	req := httptest.NewRequest(http.MethodPost, "/webhook/helius", strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, 2, ack.Received)

	require.Len(t, ing.batches, 1)
	assert.Equal(t, "sig1", ing.batches[0][0].Signature)
}

func TestHeliusWebhook_SingleObjectAccepted(t *testing.T) {
	ing := &captureIngestor{}
	e := testEcho(testHandlers(ing), ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/helius", strings.NewReader(`{"signature":"sig1"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ing.batches, 1)
	assert.Len(t, ing.batches[0], 1)
}

func TestHeliusWebhook_MalformedJSONRejected(t *testing.T) {
	ing := &captureIngestor{}
	e := testEcho(testHandlers(ing), ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/helius", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ing.batches)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid json", resp.Error)
}

func TestHealth_OKWithoutRedis(t *testing.T) {
	e := testEcho(testHandlers(&captureIngestor{}), ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
}

func TestRosterStatus_ReportsSnapshot(t *testing.T) {
	e := testEcho(testHandlers(&captureIngestor{}), ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/roster", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RosterStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Wallets)
	assert.Equal(t, []string{"Insider"}, resp.Tracked)
}

func TestAPIKey_GuardsOperatorRoutesOnly(t *testing.T) {
	e := testEcho(testHandlers(&captureIngestor{}), ServerConfig{APIKey: "secret"})

	// Operator route without the key is rejected.
	req := httptest.NewRequest(http.MethodGet, "/v1/roster", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// With the key it works.
	req = httptest.NewRequest(http.MethodGet, "/v1/roster", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The webhook stays open; the provider cannot attach the key.
	body := `{"signature":"sig1"}`
	req = httptest.NewRequest(http.MethodPost, "/webhook/helius", strings.NewReader(body))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	e := testEcho(testHandlers(&captureIngestor{}), ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
