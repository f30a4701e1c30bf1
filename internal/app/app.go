package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"drb-balance-bot/internal/balance"
	"drb-balance-bot/internal/bot"
	"drb-balance-bot/internal/chain"
	"drb-balance-bot/internal/config"
	"drb-balance-bot/internal/pricing"
	"drb-balance-bot/internal/report"
	"drb-balance-bot/internal/scrape"
	"drb-balance-bot/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) tokens() []balance.Token {
	tokens := make([]balance.Token, 0, len(a.Config.Ethereum.Tokens))
	for _, t := range a.Config.Ethereum.Tokens {
		tokens = append(tokens, balance.Token{Symbol: t.Symbol, Address: t.Address, Color: t.Color})
	}
	return tokens
}

func (a *App) symbols() []string {
	symbols := make([]string, 0, len(a.Config.Ethereum.Tokens))
	for _, t := range a.Config.Ethereum.Tokens {
		symbols = append(symbols, t.Symbol)
	}
	return symbols
}

func (a *App) newResolver() *balance.Resolver {
	reader := chain.NewReader(chain.Options{
		RPCURL:  a.Config.Ethereum.RPCURL,
		Timeout: a.Config.Ethereum.RequestTimeout,
	}, a.Logger)

	prices := pricing.NewClient(pricing.Options{
		BaseURL:   a.Config.DexScreener.BaseURL,
		Timeout:   a.Config.DexScreener.RequestTimeout,
		UserAgent: a.Config.DexScreener.UserAgent,
	}, a.Logger)

	return balance.NewResolver(reader, prices, balance.Options{
		WalletAddress: a.Config.Ethereum.WalletAddress,
		Tokens:        a.tokens(),
	}, a.Logger)
}

func (a *App) newPipeline(symbols []string) *scrape.Pipeline {
	fetcher := scrape.NewFetcher(scrape.FetcherOptions{
		URL:       a.Config.Dashboard.URL,
		Timeout:   a.Config.Dashboard.RequestTimeout,
		UserAgent: a.Config.Dashboard.UserAgent,
	}, a.Logger)

	return scrape.NewPipeline(fetcher, scrape.PipelineOptions{
		Symbols:     symbols,
		LabelWords:  a.Config.Dashboard.LabelWords,
		LabelPhrase: a.Config.Dashboard.LabelPhrase,
		RequireFees: a.Config.Dashboard.RequireFees,
	}, a.Logger)
}

// Run executes the long-running bot loop.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token must be configured to run the bot")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	messenger := bot.NewClient(bot.ClientOptions{
		BotToken:    a.Config.Telegram.BotToken,
		APIBase:     a.Config.Telegram.APIBase,
		PollTimeout: a.Config.Telegram.PollTimeout,
		SendTimeout: a.Config.Telegram.SendTimeout,
	}, a.Logger)

	svc := service.New(messenger, a.newResolver(), a.newPipeline(nil), service.Options{
		Command:     a.Config.Telegram.Command,
		AdminChatID: a.Config.Telegram.AdminChatID,
		Title:       a.Config.Chart.Title,
		Tokens:      a.tokens(),
		Chart: report.DonutOptions{
			Width:  a.Config.Chart.Width,
			Height: a.Config.Chart.Height,
		},
	}, a.Logger)

	a.Logger.Info().Str("command", "/"+a.Config.Telegram.Command).Msg("starting bot")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("bot terminated with error")
		return err
	}

	a.Logger.Info().Msg("bot stopped")
	return nil
}
