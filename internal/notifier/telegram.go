package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender delivers a formatted message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger

	// MaxElapsed bounds SendWithRetry.
	MaxElapsed time.Duration
}

// Options configures NewTelegramNotifier.
type Options struct {
	Token    string
	ChatID   int64
	ProxyURL string
	// Endpoint overrides tgbotapi.APIEndpoint, mainly for tests.
	Endpoint string
}

// NewTelegramNotifier authorizes the bot (a getMe call) and returns a notifier.
func NewTelegramNotifier(opts Options) (*TelegramNotifier, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, &http.Client{Timeout: 60 * time.Second, Transport: transport})
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}

	t := &TelegramNotifier{
		bot:        bot,
		chatID:     opts.ChatID,
		logger:     log.With().Str("component", "telegram").Logger(),
		MaxElapsed: 2 * time.Minute,
	}
	t.logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return t, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.sendTo(ctx, t.chatID, text)
}

func (t *TelegramNotifier) sendTo(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends text with exponential backoff until it succeeds,
// MaxElapsed passes or ctx is done.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	return retry(ctx, t.MaxElapsed, func() error { return t.Send(ctx, text) }, t.logger)
}

func retry(ctx context.Context, maxElapsed time.Duration, op func() error, logger zerolog.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = maxElapsed

	attempt := 0
	operation := func() error {
		attempt++
		err := op()
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("Telegram send failed")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("after %d attempts: %w", attempt, err)
	}
	return nil
}
