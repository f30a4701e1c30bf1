package balance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ChainReader exposes the read-only ERC-20 calls the resolver needs.
type ChainReader interface {
	Decimals(ctx context.Context, token string) (uint8, error)
	BalanceOf(ctx context.Context, token, wallet string) (*big.Int, error)
}

// PriceSource yields the best available USD price for a token contract.
type PriceSource interface {
	BestUSDPrice(ctx context.Context, token string) (decimal.Decimal, error)
}

// Token identifies one tracked contract.
type Token struct {
	Symbol  string
	Address string
	Color   string
}

// Valued is an immutable normalized balance with its USD valuation.
type Valued struct {
	Amount     decimal.Decimal
	USD        decimal.Decimal
	AmountText string
	USDText    string
}

// Options parameterise the resolver.
type Options struct {
	WalletAddress     string
	Tokens            []Token
	MaxFractionDigits int32
}

// Resolver composes chain balances with oracle prices.
type Resolver struct {
	reader  ChainReader
	prices  PriceSource
	opts    Options
	logger  zerolog.Logger
	maxFrac int32
}

// NewResolver constructs a balance resolver.
func NewResolver(reader ChainReader, prices PriceSource, opts Options, logger zerolog.Logger) *Resolver {
	maxFrac := opts.MaxFractionDigits
	if maxFrac <= 0 {
		maxFrac = DefaultMaxFractionDigits
	}
	return &Resolver{
		reader:  reader,
		prices:  prices,
		opts:    opts,
		logger:  logger.With().Str("component", "balance_resolver").Logger(),
		maxFrac: maxFrac,
	}
}

// Resolve values every tracked token. Any single failure aborts the whole
// call: a partial answer naming one token and omitting another is worse
// than an explicit error.
func (r *Resolver) Resolve(ctx context.Context) (map[string]Valued, error) {
	out := make(map[string]Valued, len(r.opts.Tokens))

	for _, token := range r.opts.Tokens {
		valued, err := r.resolveOne(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", token.Symbol, err)
		}
		out[token.Symbol] = valued
	}

	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, token Token) (Valued, error) {
	dec, err := r.reader.Decimals(ctx, token.Address)
	if err != nil {
		return Valued{}, err
	}

	raw, err := r.reader.BalanceOf(ctx, token.Address, r.opts.WalletAddress)
	if err != nil {
		return Valued{}, err
	}

	price, err := r.prices.BestUSDPrice(ctx, token.Address)
	if err != nil {
		return Valued{}, err
	}

	amount := NormalizeAmount(raw, int32(dec))
	usd := amount.Mul(price)

	r.logger.Debug().
		Str("symbol", token.Symbol).
		Str("raw", raw.String()).
		Uint8("decimals", dec).
		Str("price_usd", price.String()).
		Str("value_usd", usd.String()).
		Msg("token valued")

	return Valued{
		Amount:     amount,
		USD:        usd,
		AmountText: FormatAmount(amount, r.maxFrac),
		USDText:    FormatUSD(usd),
	}, nil
}
