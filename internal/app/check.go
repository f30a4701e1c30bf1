package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Check performs one full resolve-and-extract pass and prints the result.
// This is the operator's inspection command; unlike the chat path it shows
// raw error detail and runs the dashboard extraction with token records
// required, cross-checking the scrape tier against the chain tier.
func (a *App) Check(ctx context.Context) error {
	resolver := a.newResolver()
	valued, err := resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve balances: %w", err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tAmount\tUSD")
	for _, token := range a.tokens() {
		v := valued[token.Symbol]
		fmt.Fprintf(writer, "%s\t%s\t%s\n", token.Symbol, v.AmountText, v.USDText)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	pipeline := a.newPipeline(a.symbols())
	result, err := pipeline.Extract(ctx)
	if err != nil {
		fmt.Fprintf(os.Stdout, "\ndashboard extraction failed: %v\n", err)
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nDashboard records:")
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tAmount\tUSD")
	for _, symbol := range a.symbols() {
		hit := result.Tokens[symbol]
		fmt.Fprintf(writer, "%s\t%s\t%s\n", symbol, hit.Amount, hit.USD)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if result.FeesFound {
		fmt.Fprintf(os.Stdout, "\nHistorical fees claimed: %s\n", result.FeesClaimedUSD)
	} else {
		fmt.Fprintln(os.Stdout, "\nHistorical fees claimed: not found")
	}

	return nil
}
