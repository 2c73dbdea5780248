package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/costbasis"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Sender is the transport the dispatcher pushes rendered messages through.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Dispatcher renders alerts and fans them out to every configured chat.
// Recipients are isolated: one chat failing never blocks the others.
type Dispatcher struct {
	sender  Sender
	limiter *RateLimiter
	retry   *RetryPolicy
	chatIDs []string
	logger  *logrus.Logger
}

func NewDispatcher(sender Sender, limiter *RateLimiter, retry *RetryPolicy, chatIDs []string, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		sender:  sender,
		limiter: limiter,
		retry:   retry,
		chatIDs: chatIDs,
		logger:  logger,
	}
}

// Alert bundles everything one notification renders from.
type Alert struct {
	Event    models.SwapEvent
	Profile  models.TraderProfile
	Patterns []models.Pattern
	Analysis *costbasis.Analysis
	Position *costbasis.Summary
}

// Send renders the alert and delivers it to all chats, chunking long
// messages on line boundaries. Each chunk passes through the rate limiter;
// throttled sends retry with backoff, anything else logs and moves on.
func (d *Dispatcher) Send(ctx context.Context, alert Alert) {
	text := RenderAlert(alert)
	chunks := ChunkMessage(text, constants.TelegramChunkSize)

	for _, chatID := range d.chatIDs {
		for i, chunk := range chunks {
			if err := d.limiter.Wait(ctx); err != nil {
				d.logger.WithError(err).Warn("rate limiter wait aborted")
				return
			}
			err := d.retry.Do(ctx, func() error {
				return d.sender.SendMessage(ctx, chatID, chunk)
			})
			if err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"chat":  chatID,
					"chunk": i,
				}).Error("alert delivery failed")
				break // remaining chunks of a partial message are noise
			}
		}
	}
}

// RenderAlert builds the HTML message: swap header, pattern findings, then
// cost-basis context when available.
func RenderAlert(a Alert) string {
	ev := a.Event
	var b strings.Builder

	emoji, action := "🟢", "BUY"
	if ev.Direction == models.DirectionSell {
		emoji, action = "🔴", "SELL"
	}
	symbol := html.EscapeString(ev.TokenSymbol)

	fmt.Fprintf(&b, "%s <b>%s ALERT: %s</b>\n\n", emoji, action, symbol)
	fmt.Fprintf(&b, "👤 <a href=\"https://solscan.io/account/%s\">%s</a>", ev.Wallet, shortWallet(ev.Wallet))
	if a.Profile.Category != "" && a.Profile.Category != models.CategoryUnknown {
		fmt.Fprintf(&b, " (%s)", a.Profile.Category)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "💰 %s %s for %.2f SOL ($%s)\n", formatAmount(ev.TokenAmount), symbol, ev.SolAmount, formatUSD(ev.USDValue))
	if ev.MarketCap > 0 {
		fmt.Fprintf(&b, "📊 Market Cap: %s\n", compactUSD(ev.MarketCap))
	}
	if a.Position != nil && a.Position.NetPosition > 0 {
		fmt.Fprintf(&b, "💼 Holding: %s %s\n", formatAmount(a.Position.NetPosition), symbol)
	}

	for _, p := range a.Patterns {
		b.WriteByte('\n')
		b.WriteString(html.EscapeString(p.Summary))
		b.WriteByte('\n')
	}

	if a.Analysis != nil {
		b.WriteString(renderAnalysis(a.Analysis))
	}

	fmt.Fprintf(&b, "\n<code>%s</code>", ev.TokenMint)
	return b.String()
}

func renderAnalysis(an *costbasis.Analysis) string {
	var b strings.Builder
	b.WriteString("\n📈 <b>Cost Basis</b>\n")
	if an.Buyers != nil {
		writeSide(&b, "Buyers", an.Buyers, "up")
	}
	if an.Sellers != nil {
		writeSide(&b, "Sellers", an.Sellers, "out")
	}
	return b.String()
}

func writeSide(b *strings.Builder, label string, s *costbasis.SideAnalysis, direction string) {
	fmt.Fprintf(b, "%s (%d): avg entry %s", label, len(s.Wallets), compactUSD(s.AvgMarketCap))
	if s.MinMarketCap != s.MaxMarketCap {
		fmt.Fprintf(b, ", range %s to %s", compactUSD(s.MinMarketCap), compactUSD(s.MaxMarketCap))
	}
	if s.ProfitMultiple > 0 {
		fmt.Fprintf(b, " | %.1fx %s", s.ProfitMultiple, direction)
	}
	b.WriteByte('\n')
}

func shortWallet(wallet string) string {
	if len(wallet) <= 8 {
		return wallet
	}
	return wallet[:4] + "…" + wallet[len(wallet)-4:]
}

// compactUSD renders a market cap as $1.23K / $4.56M / $7.89B.
func compactUSD(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func formatAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
