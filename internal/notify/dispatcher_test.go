package notify

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/costbasis"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

type fakeSender struct {
	sent   map[string][]string
	failOn string
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string][]string{}}
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	if chatID == f.failOn {
		return &APIError{StatusCode: http.StatusBadRequest, Description: "chat not found"}
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func testAlert() Alert {
	avgBuy := 1_000_000.0
	return Alert{
		Event: models.SwapEvent{
			Signature:   "sig1",
			Wallet:      "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
			TokenMint:   "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			TokenSymbol: "BONK",
			Direction:   models.DirectionBuy,
			SolAmount:   12.5,
			TokenAmount: 2_500_000,
			USDValue:    2500,
			MarketCap:   2_000_000,
			Timestamp:   time.Now(),
		},
		Profile: models.TraderProfile{
			Wallet:   "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
			Category: models.CategoryInsider,
		},
		Patterns: []models.Pattern{{
			Kind:      models.PatternConfluence,
			Direction: models.DirectionBuy,
			Wallets:   []string{"w1", "w2", "w3"},
			VolumeUSD: 6000,
			Summary:   "3 alpha wallets net BUYING BONK",
		}},
		Analysis: &costbasis.Analysis{
			TokenMint:        "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			CurrentMarketCap: 2_000_000,
			Buyers: &costbasis.SideAnalysis{
				Wallets:        []costbasis.WalletEntry{{Wallet: "w1", AvgMarketCap: avgBuy}},
				AvgMarketCap:   avgBuy,
				MinMarketCap:   avgBuy,
				MaxMarketCap:   avgBuy,
				ProfitMultiple: 2.0,
			},
		},
	}
}

func TestRenderAlert_ContainsCoreFields(t *testing.T) {
	text := RenderAlert(testAlert())

	assert.Contains(t, text, "BUY ALERT: BONK")
	assert.Contains(t, text, "Insider")
	assert.Contains(t, text, "solscan.io/account/4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	assert.Contains(t, text, "12.50 SOL")
	assert.Contains(t, text, "$2.00M")
	assert.Contains(t, text, "net BUYING BONK")
	assert.Contains(t, text, "Cost Basis")
	assert.Contains(t, text, "2.0x")
	assert.Contains(t, text, "<code>DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263</code>")
}

func TestRenderAlert_SellUsesSellHeader(t *testing.T) {
	alert := testAlert()
	alert.Event.Direction = models.DirectionSell
	alert.Analysis = nil

	text := RenderAlert(alert)
	assert.Contains(t, text, "SELL ALERT: BONK")
	assert.NotContains(t, text, "Cost Basis")
}

func TestDispatcher_FansOutToAllChats(t *testing.T) {
	sender := newFakeSender()
	clock := newFakeClock()
	limiter := NewRateLimiter(3, 20)
	clock.install(limiter)

	d := NewDispatcher(sender, limiter, testPolicyNoSleep(), []string{"chat1", "chat2"}, nil)
	d.Send(context.Background(), testAlert())

	require.Len(t, sender.sent["chat1"], 1)
	require.Len(t, sender.sent["chat2"], 1)
	assert.Equal(t, sender.sent["chat1"][0], sender.sent["chat2"][0])
}

func TestDispatcher_OneChatFailingDoesNotBlockOthers(t *testing.T) {
	sender := newFakeSender()
	sender.failOn = "chat1"
	clock := newFakeClock()
	limiter := NewRateLimiter(3, 20)
	clock.install(limiter)

	d := NewDispatcher(sender, limiter, testPolicyNoSleep(), []string{"chat1", "chat2"}, nil)
	d.Send(context.Background(), testAlert())

	assert.Empty(t, sender.sent["chat1"])
	assert.Len(t, sender.sent["chat2"], 1)
}

func TestDispatcher_LongMessageChunked(t *testing.T) {
	sender := newFakeSender()
	clock := newFakeClock()
	limiter := NewRateLimiter(3, 20)
	clock.install(limiter)

	alert := testAlert()
	// Blow past the chunk limit with many pattern lines.
	for i := 0; i < 300; i++ {
		alert.Patterns = append(alert.Patterns, models.Pattern{
			Kind:    models.PatternDiversity,
			Summary: "3 trader types buying BONK across many wallets in the window",
		})
	}

	d := NewDispatcher(sender, limiter, testPolicyNoSleep(), []string{"chat1"}, nil)
	d.Send(context.Background(), alert)

	require.Greater(t, len(sender.sent["chat1"]), 1)
	for _, chunk := range sender.sent["chat1"] {
		assert.LessOrEqual(t, len(chunk), 4000)
		assert.False(t, strings.HasPrefix(chunk, "\n"))
	}
}

func testPolicyNoSleep() *RetryPolicy {
	p := NewRetryPolicy()
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}
