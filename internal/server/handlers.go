package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/flags"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/normalizer"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

// maxWebhookBody caps a single delivery; Helius batches stay far below this.
const maxWebhookBody = 4 << 20

// Ingestor accepts decoded webhook batches for background processing.
type Ingestor interface {
	Enqueue(ctx context.Context, records []normalizer.TransactionRecord)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Pipeline Ingestor       // Background processing pipeline
	Redis    redis.Cmdable  // Health check connectivity probe
	Roster   *roster.Holder // Live roster snapshot
	Toggles  *flags.Store   // Detector mute toggles
	DevMode  bool           // Enable detailed error responses in development
	Logger   *logrus.Logger // Structured logger

	// AppCtx outlives individual requests; background processing started by
	// a webhook must not die with the request context.
	AppCtx context.Context
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health reports service liveness and Redis connectivity
func (h *Handlers) Health(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	redisOK := true
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			redisOK = false
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Redis: redisOK})
}

// HeliusWebhook ingests one enhanced-transaction delivery. Malformed JSON is
// the only client error; everything decodable is acked with 200 immediately
// and processed in the background, since Helius retries non-2xx deliveries
// and a retried batch would double-count swaps.
func (h *Handlers) HeliusWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "unreadable body", nil)
	}

	records, err := normalizer.DecodePayload(body)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", map[string]any{"err": err.Error()})
	}

	if len(records) > 0 {
		h.Pipeline.Enqueue(h.appCtx(), records)
	}
	return c.JSON(http.StatusOK, WebhookAck{Status: "ok", Received: len(records)})
}

// RosterStatus summarizes the current roster snapshot
func (h *Handlers) RosterStatus(c echo.Context) error {
	snap := h.Roster.Current()
	return c.JSON(http.StatusOK, RosterStatusResponse{
		Wallets:   snap.Size(),
		Tracked:   snap.TrackedCategories(),
		FetchedAt: snap.FetchedAt.Format(time.RFC3339),
	})
}

// TogglesList returns every detector toggle and its state
func (h *Handlers) TogglesList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	items, err := h.Toggles.All(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list toggles", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// TogglesUpdate mutes or unmutes one detector kind
func (h *Handlers) TogglesUpdate(c echo.Context) error {
	kind := models.PatternKind(c.Param("kind"))
	switch kind {
	case models.PatternConfluence, models.PatternSequence, models.PatternDiversity:
	default:
		return h.err(c, http.StatusBadRequest, "unknown detector kind", nil)
	}

	var req ToggleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Toggles.Set(ctx, kind, req.Enabled); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update toggle", nil)
	}
	return c.JSON(http.StatusOK, ToggleResponse{Kind: string(kind), Enabled: req.Enabled})
}

func (h *Handlers) appCtx() context.Context {
	if h.AppCtx != nil {
		return h.AppCtx
	}
	return context.Background()
}
