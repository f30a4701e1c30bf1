package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{BaseURL: baseURL, Timeout: time.Second, UserAgent: "test"}, zerolog.Nop())
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestBestUSDPricePicksMaxLiquidity(t *testing.T) {
	srv := serveJSON(t, `{"pairs":[
		{"priceUsd":"1.10","liquidity":{"usd":500}},
		{"priceUsd":"1.12","liquidity":{"usd":50000}},
		{"priceUsd":"0","liquidity":{"usd":1000000000}}
	]}`)
	defer srv.Close()

	price, err := newTestClient(srv.URL).BestUSDPrice(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("expected a price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("1.12")) {
		t.Fatalf("expected 1.12, got %s", price.String())
	}
}

func TestBestUSDPriceSkipsMalformedPairs(t *testing.T) {
	srv := serveJSON(t, `{"pairs":[
		{"priceUsd":"not-a-number","liquidity":{"usd":"junk"}},
		{"priceUsd":"2.00","liquidity":null},
		{"priceUsd":"3.00"}
	]}`)
	defer srv.Close()

	price, err := newTestClient(srv.URL).BestUSDPrice(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("one bad pair must not abort the call: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("first positive pair should win the zero-liquidity tie, got %s", price.String())
	}
}

func TestBestUSDPriceStringLiquidity(t *testing.T) {
	srv := serveJSON(t, `{"pairs":[
		{"priceUsd":"1.50","liquidity":{"usd":"100"}},
		{"priceUsd":"1.60","liquidity":{"usd":"900.5"}}
	]}`)
	defer srv.Close()

	price, err := newTestClient(srv.URL).BestUSDPrice(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("expected a price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("1.60")) {
		t.Fatalf("expected 1.60, got %s", price.String())
	}
}

func TestBestUSDPriceNoPositivePairs(t *testing.T) {
	for _, body := range []string{
		`{"pairs":[]}`,
		`{"pairs":null}`,
		`{"pairs":[{"priceUsd":"0","liquidity":{"usd":100}},{"priceUsd":"-1","liquidity":{"usd":200}}]}`,
	} {
		srv := serveJSON(t, body)
		_, err := newTestClient(srv.URL).BestUSDPrice(context.Background(), "0xtoken")
		srv.Close()
		if !errors.Is(err, ErrNoPrice) {
			t.Fatalf("body %s: expected ErrNoPrice, got %v", body, err)
		}
	}
}

func TestBestUSDPriceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).BestUSDPrice(context.Background(), "0xtoken"); err == nil {
		t.Fatal("non-200 status must return an error")
	}
}
