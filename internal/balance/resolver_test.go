package balance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeReader struct {
	decimals map[string]uint8
	balances map[string]string
	err      error
}

func (f *fakeReader) Decimals(_ context.Context, token string) (uint8, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.decimals[token], nil
}

func (f *fakeReader) BalanceOf(_ context.Context, token, _ string) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, _ := new(big.Int).SetString(f.balances[token], 10)
	return raw, nil
}

type fakePrices struct {
	prices map[string]string
	errFor string
}

func (f *fakePrices) BestUSDPrice(_ context.Context, token string) (decimal.Decimal, error) {
	if token == f.errFor {
		return decimal.Decimal{}, errors.New("price lookup failed")
	}
	return decimal.NewFromString(f.prices[token])
}

func testTokens() []Token {
	return []Token{
		{Symbol: "DRB", Address: "0xdrb"},
		{Symbol: "WETH", Address: "0xweth"},
	}
}

func TestResolveValuesAllTokens(t *testing.T) {
	reader := &fakeReader{
		decimals: map[string]uint8{"0xdrb": 18, "0xweth": 18},
		balances: map[string]string{
			"0xdrb":  "123000000000000000000",
			"0xweth": "2500000000000000000",
		},
	}
	prices := &fakePrices{prices: map[string]string{"0xdrb": "2.50", "0xweth": "2000"}}

	resolver := NewResolver(reader, prices, Options{WalletAddress: "0xwallet", Tokens: testTokens()}, zerolog.Nop())

	valued, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve should succeed: %v", err)
	}

	drb := valued["DRB"]
	if drb.AmountText != "123" {
		t.Fatalf("expected amount 123, got %q", drb.AmountText)
	}
	if drb.USDText != "$308" {
		t.Fatalf("expected usd $308, got %q", drb.USDText)
	}

	weth := valued["WETH"]
	if weth.AmountText != "2.5" {
		t.Fatalf("expected amount 2.5, got %q", weth.AmountText)
	}
	if weth.USDText != "$5,000" {
		t.Fatalf("expected usd $5,000, got %q", weth.USDText)
	}
}

func TestResolveAbortsOnAnyFailure(t *testing.T) {
	reader := &fakeReader{
		decimals: map[string]uint8{"0xdrb": 18, "0xweth": 18},
		balances: map[string]string{"0xdrb": "1000000000000000000", "0xweth": "1000000000000000000"},
	}
	prices := &fakePrices{prices: map[string]string{"0xdrb": "2.50"}, errFor: "0xweth"}

	resolver := NewResolver(reader, prices, Options{WalletAddress: "0xwallet", Tokens: testTokens()}, zerolog.Nop())

	if _, err := resolver.Resolve(context.Background()); err == nil {
		t.Fatal("a single token failure must abort the whole resolve")
	}
}

func TestResolveAbortsOnChainError(t *testing.T) {
	reader := &fakeReader{err: errors.New("rpc down")}
	prices := &fakePrices{prices: map[string]string{"0xdrb": "1"}}

	resolver := NewResolver(reader, prices, Options{WalletAddress: "0xwallet", Tokens: testTokens()[:1]}, zerolog.Nop())

	if _, err := resolver.Resolve(context.Background()); err == nil {
		t.Fatal("chain failure must abort resolve")
	}
}
