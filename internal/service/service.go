package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"drb-balance-bot/internal/balance"
	"drb-balance-bot/internal/bot"
	"drb-balance-bot/internal/report"
)

// userErrorText is the only failure detail an end user ever sees; the full
// error goes to the log and the admin chat.
const userErrorText = "Error fetching balances"

// pollRetryDelay paces retries after a failed getUpdates round trip.
const pollRetryDelay = 3 * time.Second

// Messenger is the chat transport the service speaks through.
type Messenger interface {
	Updates(ctx context.Context, offset int64) ([]bot.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
	SendPhoto(ctx context.Context, chatID, caption string, png []byte) error
}

// BalanceSource resolves the tracked wallet's valued balances.
type BalanceSource interface {
	Resolve(ctx context.Context) (map[string]balance.Valued, error)
}

// FeesSource recovers the fees-claimed figure from the dashboard.
type FeesSource interface {
	ExtractFees(ctx context.Context) (string, bool, error)
}

// Options parameterise the command service.
type Options struct {
	Command     string
	AdminChatID string
	Title       string
	Tokens      []balance.Token
	Chart       report.DonutOptions
}

// Service answers chat commands with the wallet's current valuation.
type Service struct {
	messenger Messenger
	balances  BalanceSource
	fees      FeesSource
	opts      Options
	logger    zerolog.Logger
}

// New constructs the command service.
func New(messenger Messenger, balances BalanceSource, fees FeesSource, opts Options, logger zerolog.Logger) *Service {
	if opts.Command == "" {
		opts.Command = "grok"
	}
	return &Service{
		messenger: messenger,
		balances:  balances,
		fees:      fees,
		opts:      opts,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run long-polls for updates and dispatches commands until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.notifyAdmin(ctx, "Bot started")

	var offset int64
	for {
		updates, err := s.messenger.Updates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Msg("poll failed; retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			if bot.ParseCommand(update.Message.Text) != s.opts.Command {
				continue
			}
			s.HandleCommand(ctx, bot.ChatIDString(update.Message.Chat.ID))
		}
	}
}

// HandleCommand answers one balance command. Every failure is logged in
// full, forwarded to the admin chat, and reported to the user as one short
// generic line; raw detail never reaches the chat that asked.
func (s *Service) HandleCommand(ctx context.Context, chatID string) {
	summary, err := s.BuildSummary(ctx)
	if err != nil {
		s.reportFailure(ctx, chatID, fmt.Errorf("build summary: %w", err))
		return
	}

	png, err := report.Donut(summary, s.opts.Chart)
	if err != nil {
		s.reportFailure(ctx, chatID, fmt.Errorf("render donut: %w", err))
		return
	}

	if err := s.messenger.SendPhoto(ctx, chatID, summary.Caption(), png); err != nil {
		s.reportFailure(ctx, chatID, fmt.Errorf("send photo: %w", err))
		return
	}

	s.logger.Info().Str("chat_id", chatID).Msg("balance reply sent")
}

// BuildSummary resolves balances and the fees metric into a reply payload.
func (s *Service) BuildSummary(ctx context.Context) (report.Summary, error) {
	valued, err := s.balances.Resolve(ctx)
	if err != nil {
		return report.Summary{}, err
	}

	fees, feesFound, err := s.fees.ExtractFees(ctx)
	if err != nil {
		return report.Summary{}, err
	}

	return report.Build(s.opts.Title, s.opts.Tokens, valued, fees, feesFound)
}

func (s *Service) reportFailure(ctx context.Context, chatID string, err error) {
	s.logger.Error().Err(err).Str("chat_id", chatID).Msg("balance command failed")

	s.notifyAdmin(ctx, fmt.Sprintf("balance command error: %v", err))

	if sendErr := s.messenger.SendMessage(ctx, chatID, userErrorText); sendErr != nil {
		s.logger.Error().Err(sendErr).Str("chat_id", chatID).Msg("failed to deliver error reply")
	}
}

// notifyAdmin is best effort: a broken operator channel must not take the
// command path down with it.
func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if s.opts.AdminChatID == "" {
		return
	}
	if err := s.messenger.SendMessage(ctx, s.opts.AdminChatID, text); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Msg("admin notification failed")
	}
}
