package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/normalizer"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

// Ingestor is the downstream the socket feeds; the webhook path and this
// stream share one pipeline.
type Ingestor interface {
	Enqueue(ctx context.Context, records []normalizer.TransactionRecord)
}

// HeliusStream is the webhook-less ingest path: a transactionSubscribe
// socket filtered to the roster wallets. Useful where inbound HTTP is not an
// option. The roster snapshot taken at (re)connect time drives the filter,
// so a roster refresh applies on the next reconnect.
type HeliusStream struct {
	apiKey   string
	endpoint string
	roster   *roster.Holder
	pipeline Ingestor
	logger   *logrus.Logger

	dial func(ctx context.Context, url string) (*websocket.Conn, error)
}

func NewHeliusStream(apiKey string, holder *roster.Holder, pipeline Ingestor, logger *logrus.Logger) *HeliusStream {
	if logger == nil {
		logger = logrus.New()
	}
	return &HeliusStream{
		apiKey:   apiKey,
		endpoint: "wss://atlas-mainnet.helius-rpc.com",
		roster:   holder,
		pipeline: pipeline,
		logger:   logger,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
	}
}

// Run connects, subscribes, and pumps notifications into the pipeline until
// the context is cancelled. Connection loss reconnects with a fixed delay;
// the window semantics tolerate the gap.
func (h *HeliusStream) Run(ctx context.Context) error {
	for {
		if err := h.connectAndListen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.WithError(err).Warn("stream disconnected, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (h *HeliusStream) connectAndListen(ctx context.Context) error {
	url := fmt.Sprintf("%s/?api-key=%s", h.endpoint, h.apiKey)
	conn, err := h.dial(ctx, url)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(h.subscribeRequest()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	h.logger.WithField("wallets", h.roster.Current().Size()).Info("transaction stream connected")

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		if record, ok := h.parseNotification(raw); ok {
			h.pipeline.Enqueue(ctx, []normalizer.TransactionRecord{record})
		}
	}
}

func (h *HeliusStream) subscribeRequest() map[string]any {
	wallets := h.roster.Current().Wallets()
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "transactionSubscribe",
		"params": []any{
			map[string]any{
				"accountInclude": wallets,
				"failed":         false,
			},
			map[string]any{
				"commitment":                     "confirmed",
				"encoding":                       "jsonParsed",
				"transactionDetails":             "full",
				"showRewards":                    false,
				"maxSupportedTransactionVersion": 0,
			},
		},
	}
}

// notification is the subset of a transactionNotification the pipeline
// consumes. The socket sends raw balance tables rather than the webhook's
// enhanced transfers, so transfers are rebuilt from balance deltas.
type notification struct {
	Params struct {
		Result struct {
			Value struct {
				Signature   string `json:"signature"`
				Transaction struct {
					Meta struct {
						PreBalances       []int64        `json:"preBalances"`
						PostBalances      []int64        `json:"postBalances"`
						PreTokenBalances  []tokenBalance `json:"preTokenBalances"`
						PostTokenBalances []tokenBalance `json:"postTokenBalances"`
					} `json:"meta"`
					Transaction struct {
						Message struct {
							AccountKeys []accountKey `json:"accountKeys"`
						} `json:"message"`
					} `json:"transaction"`
				} `json:"transaction"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type tokenBalance struct {
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		UIAmount float64 `json:"uiAmount"`
	} `json:"uiTokenAmount"`
}

type accountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

func (h *HeliusStream) parseNotification(raw []byte) (normalizer.TransactionRecord, bool) {
	var note notification
	if err := json.Unmarshal(raw, &note); err != nil {
		return normalizer.TransactionRecord{}, false
	}
	val := note.Params.Result.Value
	if val.Signature == "" {
		// Subscription confirmations and pings have no value payload.
		return normalizer.TransactionRecord{}, false
	}

	record := normalizer.TransactionRecord{
		Signature: val.Signature,
		Timestamp: time.Now().Unix(),
		Source:    "helius-ws",
	}

	keys := val.Transaction.Transaction.Message.AccountKeys
	for _, k := range keys {
		if k.Signer {
			record.FeePayer = k.Pubkey
			break
		}
	}

	// Per-owner token deltas become one-sided pseudo transfers; the
	// normalizer nets them the same way it nets enhanced transfers.
	type pairKey struct{ owner, mint string }
	deltas := map[pairKey]float64{}
	for _, b := range val.Transaction.Meta.PreTokenBalances {
		deltas[pairKey{b.Owner, b.Mint}] -= b.UITokenAmount.UIAmount
	}
	for _, b := range val.Transaction.Meta.PostTokenBalances {
		deltas[pairKey{b.Owner, b.Mint}] += b.UITokenAmount.UIAmount
	}
	for k, d := range deltas {
		switch {
		case d > 0:
			record.TokenTransfers = append(record.TokenTransfers, normalizer.TokenTransfer{
				ToUserAccount: k.owner, Mint: k.mint, TokenAmount: d,
			})
		case d < 0:
			record.TokenTransfers = append(record.TokenTransfers, normalizer.TokenTransfer{
				FromUserAccount: k.owner, Mint: k.mint, TokenAmount: -d,
			})
		}
	}
	if len(record.TokenTransfers) == 0 {
		h.logger.WithField("signature", val.Signature).Debug("notification without token movement")
		return normalizer.TransactionRecord{}, false
	}

	pre, post := val.Transaction.Meta.PreBalances, val.Transaction.Meta.PostBalances
	for i, k := range keys {
		if i >= len(pre) || i >= len(post) {
			break
		}
		switch d := post[i] - pre[i]; {
		case d > 0:
			record.NativeTransfers = append(record.NativeTransfers, normalizer.NativeTransfer{
				ToUserAccount: k.Pubkey, Amount: d,
			})
		case d < 0:
			record.NativeTransfers = append(record.NativeTransfers, normalizer.NativeTransfer{
				FromUserAccount: k.Pubkey, Amount: -d,
			})
		}
	}
	return record, true
}
