package marketdata

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TokenMeta is per-mint supply metadata used for market-cap computation.
type TokenMeta struct {
	UISupply float64
	Decimals uint8
}

// SupplyFetcher resolves token supply metadata for a mint.
type SupplyFetcher interface {
	TokenSupply(ctx context.Context, mint string) (TokenMeta, error)
}

// RPCSupplyFetcher reads token supply from a Solana RPC node.
type RPCSupplyFetcher struct {
	client *rpc.Client
}

func NewRPCSupplyFetcher(rpcURL string) *RPCSupplyFetcher {
	return &RPCSupplyFetcher{client: rpc.New(rpcURL)}
}

func (f *RPCSupplyFetcher) TokenSupply(ctx context.Context, mint string) (TokenMeta, error) {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return TokenMeta{}, fmt.Errorf("invalid mint %q: %w", mint, err)
	}

	out, err := f.client.GetTokenSupply(ctx, pk, rpc.CommitmentConfirmed)
	if err != nil {
		return TokenMeta{}, fmt.Errorf("getTokenSupply: %w", err)
	}
	if out == nil || out.Value == nil || out.Value.UiAmount == nil {
		return TokenMeta{}, fmt.Errorf("getTokenSupply: empty result for %s", mint)
	}

	return TokenMeta{
		UISupply: *out.Value.UiAmount,
		Decimals: out.Value.Decimals,
	}, nil
}
