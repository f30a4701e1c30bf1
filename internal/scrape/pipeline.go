package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drb-balance-bot/internal/balance"
)

// ErrExtraction indicates both the structured and text tiers failed to
// produce a required field.
var ErrExtraction = errors.New("extraction failed")

// Result is the pipeline output consumed by renderers: per-symbol token
// records plus an optional fees-claimed figure. FeesFound distinguishes a
// cleanly absent metric from one that was extracted.
type Result struct {
	Tokens         map[string]TokenHit
	FeesClaimedUSD string
	FeesFound      bool
}

// PipelineOptions parameterise the extraction pipeline.
type PipelineOptions struct {
	Symbols     []string
	LabelWords  []string
	LabelPhrase string
	RequireFees bool
}

// Pipeline orchestrates structured extraction with text fallback.
type Pipeline struct {
	fetcher *Fetcher
	opts    PipelineOptions
	logger  zerolog.Logger
}

// NewPipeline constructs an extraction pipeline over the given fetcher.
func NewPipeline(fetcher *Fetcher, opts PipelineOptions, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With().Str("component", "extraction_pipeline").Logger(),
	}
}

// Extract fetches the dashboard once and recovers every tracked token record
// plus the labeled fees metric. Per field the structured tier runs first and
// the text tier only on a miss. A missing token record is fatal; a missing
// fees figure is fatal only when the pipeline requires it.
func (p *Pipeline) Extract(ctx context.Context) (Result, error) {
	doc, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Tokens: make(map[string]TokenHit, len(p.opts.Symbols))}

	for _, symbol := range p.opts.Symbols {
		hit, tier, found := p.extractToken(doc, symbol)
		if !found {
			return Result{}, fmt.Errorf("%w: token record %s not found in either tier", ErrExtraction, symbol)
		}
		hit.USD = NormalizeUSD(hit.USD)
		result.Tokens[symbol] = hit
		p.logger.Debug().Str("symbol", symbol).Str("tier", tier).Msg("token record extracted")
	}

	fees, tier, found := p.extractFees(doc)
	if found {
		result.FeesClaimedUSD = NormalizeUSD(fees)
		result.FeesFound = true
		p.logger.Debug().Str("tier", tier).Msg("fees metric extracted")
	} else if p.opts.RequireFees {
		return Result{}, fmt.Errorf("%w: fees metric not found in either tier", ErrExtraction)
	} else {
		p.logger.Warn().Msg("fees metric not found; omitting from result")
	}

	return result, nil
}

// ExtractFees fetches the dashboard and recovers only the labeled fees
// metric. When fees are optional a miss comes back as found=false with a nil
// error; fetch failures always surface.
func (p *Pipeline) ExtractFees(ctx context.Context) (string, bool, error) {
	doc, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return "", false, err
	}

	fees, tier, found := p.extractFees(doc)
	if !found {
		if p.opts.RequireFees {
			return "", false, fmt.Errorf("%w: fees metric not found in either tier", ErrExtraction)
		}
		p.logger.Warn().Msg("fees metric not found; omitting from result")
		return "", false, nil
	}

	p.logger.Debug().Str("tier", tier).Msg("fees metric extracted")
	return NormalizeUSD(fees), true, nil
}

func (p *Pipeline) extractToken(doc *Document, symbol string) (TokenHit, string, bool) {
	if hit, ok := FindToken(doc.Tree, symbol); ok {
		return hit, "structured", true
	}
	if hit, ok := ExtractNear(doc.HTML, symbol); ok {
		return hit, "fallback", true
	}
	return TokenHit{}, "", false
}

func (p *Pipeline) extractFees(doc *Document) (string, string, bool) {
	if usd, ok := FindUSDNearLabel(doc.Tree, p.opts.LabelWords); ok {
		return usd, "structured", true
	}
	if usd, ok := ExtractLabeledUSD(doc.HTML, p.opts.LabelPhrase); ok {
		return usd, "fallback", true
	}
	return "", "", false
}

// NormalizeUSD coerces a numeric-looking value, dollar-prefixed or bare, to
// the canonical $ thousands-separated whole-dollar form. Values that resist
// numeric coercion pass through unchanged; losing data silently is worse
// than an odd-looking figure.
func NormalizeUSD(value string) string {
	trimmed := strings.TrimSpace(value)
	numeric := strings.TrimPrefix(trimmed, "$")
	numeric = strings.ReplaceAll(numeric, ",", "")
	if numeric == "" {
		return value
	}

	parsed, err := decimal.NewFromString(numeric)
	if err != nil {
		return value
	}

	return balance.FormatUSD(parsed)
}
