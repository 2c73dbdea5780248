package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

func testStream() *HeliusStream {
	holder := roster.NewHolder(roster.NewSnapshot(nil, nil))
	return NewHeliusStream("key", holder, nil, nil)
}

func TestParseNotification_RebuildsTransfersFromBalances(t *testing.T) {
	raw := []byte(`{
		"params": {"result": {"value": {
			"signature": "sig1",
			"transaction": {
				"meta": {
					"preBalances": [5000000000, 1000000000],
					"postBalances": [2000000000, 4000000000],
					"preTokenBalances": [
						{"mint": "MintA", "owner": "walletX", "uiTokenAmount": {"uiAmount": 100}}
					],
					"postTokenBalances": [
						{"mint": "MintA", "owner": "walletX", "uiTokenAmount": {"uiAmount": 350}}
					]
				},
				"transaction": {"message": {"accountKeys": [
					{"pubkey": "walletX", "signer": true},
					{"pubkey": "walletY", "signer": false}
				]}}
			}
		}}}
	}`)

	record, ok := testStream().parseNotification(raw)
	require.True(t, ok)
	assert.Equal(t, "sig1", record.Signature)
	assert.Equal(t, "walletX", record.FeePayer)

	require.Len(t, record.TokenTransfers, 1)
	tt := record.TokenTransfers[0]
	assert.Equal(t, "walletX", tt.ToUserAccount)
	assert.Equal(t, "MintA", tt.Mint)
	assert.InDelta(t, 250, tt.TokenAmount, 0.001)

	require.Len(t, record.NativeTransfers, 2)
	var outflow, inflow int64
	for _, nt := range record.NativeTransfers {
		switch {
		case nt.FromUserAccount == "walletX":
			outflow = nt.Amount
		case nt.ToUserAccount == "walletY":
			inflow = nt.Amount
		}
	}
	assert.Equal(t, int64(3000000000), outflow)
	assert.Equal(t, int64(3000000000), inflow)
}

func TestParseNotification_IgnoresConfirmations(t *testing.T) {
	_, ok := testStream().parseNotification([]byte(`{"jsonrpc":"2.0","id":1,"result":12345}`))
	assert.False(t, ok)
}

func TestParseNotification_NoTokenMovementDropped(t *testing.T) {
	raw := []byte(`{"params": {"result": {"value": {"signature": "sig2", "transaction": {"meta": {}, "transaction": {"message": {"accountKeys": []}}}}}}}`)
	_, ok := testStream().parseNotification(raw)
	assert.False(t, ok)
}

func TestSubscribeRequest_FiltersToRosterWallets(t *testing.T) {
	holder := roster.NewHolder(roster.NewSnapshot(map[string]models.TraderProfile{
		"w1": {Wallet: "w1", Category: models.CategoryInsider},
		"w2": {Wallet: "w2", Category: models.CategoryAlphaTrader},
	}, []models.TraderCategory{models.CategoryInsider}))
	s := NewHeliusStream("key", holder, nil, nil)

	req := s.subscribeRequest()
	params, ok := req["params"].([]any)
	require.True(t, ok)
	filter, ok := params[0].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"w1", "w2"}, filter["accountInclude"])
}
