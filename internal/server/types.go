package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool `json:"ok"`    // Service health status
	Redis bool `json:"redis"` // Redis connectivity
}

// WebhookAck is the immediate response to an accepted webhook delivery.
// Processing continues in the background after the ack.
type WebhookAck struct {
	Status   string `json:"status"`
	Received int    `json:"received"` // Transactions accepted in this delivery
}

// RosterStatusResponse summarizes the live roster snapshot
type RosterStatusResponse struct {
	Wallets   int      `json:"wallets"`    // Profiles in the current snapshot
	Tracked   []string `json:"tracked"`    // Categories counted by the detectors
	FetchedAt string   `json:"fetched_at"` // When the snapshot was fetched (RFC 3339)
}

// ToggleUpdateRequest mutes or unmutes one detector kind
type ToggleUpdateRequest struct {
	Enabled bool `json:"enabled"`
}

// ToggleResponse reports one detector toggle
type ToggleResponse struct {
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}
