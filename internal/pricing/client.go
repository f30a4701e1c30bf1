package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNoPrice indicates no trading pair offered a positive USD price.
var ErrNoPrice = errors.New("no positive usd price found")

// Options parameterise the DexScreener client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches USD prices from the DexScreener token endpoint.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a price client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.dexscreener.com/latest/dex/tokens/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "price_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// BestUSDPrice returns the price of the highest-liquidity pair with a
// positive price. Pairs that fail to parse are skipped, never fatal.
func (c *Client) BestUSDPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+token, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("dexscreener read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("dexscreener status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var res tokenResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return decimal.Decimal{}, fmt.Errorf("dexscreener decode: %w", err)
	}

	best, found := selectBestPair(res.Pairs)
	if !found {
		c.logger.Warn().Str("token", token).Int("pairs", len(res.Pairs)).Msg("no pair with positive priceUsd")
		return decimal.Decimal{}, fmt.Errorf("%w: token %s", ErrNoPrice, token)
	}

	return best, nil
}

// selectBestPair keeps the positive-price pair with maximum liquidity,
// first-seen winning ties. Malformed price or liquidity drops the pair.
func selectBestPair(pairs []pairData) (decimal.Decimal, bool) {
	var (
		bestPrice decimal.Decimal
		bestLiq   decimal.Decimal
		found     bool
	)

	for _, pair := range pairs {
		price, err := parseLoose(pair.PriceUsd)
		if err != nil {
			continue
		}
		if price.Sign() <= 0 {
			continue
		}

		liq := decimal.Zero
		if pair.Liquidity != nil {
			if parsed, err := parseLoose(pair.Liquidity.Usd); err == nil {
				liq = parsed
			}
		}

		if !found || liq.GreaterThan(bestLiq) {
			bestPrice = price
			bestLiq = liq
			found = true
		}
	}

	return bestPrice, found
}

// parseLoose accepts the string/number/null forms DexScreener mixes freely.
func parseLoose(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return decimal.Zero, nil
	}
	trimmed = strings.Trim(trimmed, `"`)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(trimmed)
}

type tokenResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []pairData `json:"pairs"`
}

type pairData struct {
	ChainID     string          `json:"chainId"`
	DexID       string          `json:"dexId"`
	PairAddress string          `json:"pairAddress"`
	BaseToken   pairToken       `json:"baseToken"`
	QuoteToken  pairToken       `json:"quoteToken"`
	PriceUsd    json.RawMessage `json:"priceUsd"`
	Liquidity   *pairLiquidity  `json:"liquidity"`
}

type pairToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type pairLiquidity struct {
	Usd json.RawMessage `json:"usd"`
}
