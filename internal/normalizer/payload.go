package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TransactionRecord is one provider-enhanced transaction from a webhook
// delivery. Only the fields the pipeline consumes are decoded.
type TransactionRecord struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	FeePayer        string           `json:"feePayer"`
	Source          string           `json:"source"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
}

// TokenTransfer is one SPL token movement inside a transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// NativeTransfer is one lamport movement inside a transaction.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

// DecodePayload accepts either a JSON array of transaction records or a
// single object; the provider sends both shapes.
func DecodePayload(body []byte) ([]TransactionRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty webhook body")
	}

	if trimmed[0] == '[' {
		var records []TransactionRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode webhook array: %w", err)
		}
		return records, nil
	}

	var record TransactionRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("failed to decode webhook object: %w", err)
	}
	return []TransactionRecord{record}, nil
}
