package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"drb-balance-bot/internal/balance"
)

// Entry is one token line of the summary, in display order.
type Entry struct {
	Symbol     string
	AmountText string
	USDText    string
	USD        decimal.Decimal
	Color      string
}

// Summary is the fully resolved reply payload: valued balances plus the
// optional fees-claimed figure. Renderers consume this shape as-is and never
// re-fetch or re-parse.
type Summary struct {
	Title          string
	Entries        []Entry
	FeesClaimedUSD string
	FeesFound      bool
}

// Build assembles a summary from resolved balances, preserving the
// configured token order.
func Build(title string, tokens []balance.Token, valued map[string]balance.Valued, fees string, feesFound bool) (Summary, error) {
	entries := make([]Entry, 0, len(tokens))
	for _, token := range tokens {
		v, ok := valued[token.Symbol]
		if !ok {
			return Summary{}, fmt.Errorf("no valued balance for %s", token.Symbol)
		}
		entries = append(entries, Entry{
			Symbol:     token.Symbol,
			AmountText: v.AmountText,
			USDText:    v.USDText,
			USD:        v.USD,
			Color:      token.Color,
		})
	}

	return Summary{
		Title:          title,
		Entries:        entries,
		FeesClaimedUSD: fees,
		FeesFound:      feesFound,
	}, nil
}

// TotalUSD sums the entry valuations.
func (s Summary) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range s.Entries {
		total = total.Add(entry.USD)
	}
	return total
}

// Caption renders the plain-text reply body.
func (s Summary) Caption() string {
	var b strings.Builder
	b.WriteString(s.Title)
	for _, entry := range s.Entries {
		b.WriteString(fmt.Sprintf("\n$%s: %s (%s)", entry.Symbol, entry.AmountText, entry.USDText))
	}
	if s.FeesFound {
		b.WriteString(fmt.Sprintf("\n\n%s\nHistorical Fees Claimed", s.FeesClaimedUSD))
	}
	return b.String()
}
