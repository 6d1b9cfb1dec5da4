package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/nyc-events/internal/config"
	"github.com/pfrederiksen/nyc-events/internal/logger"
	"github.com/pfrederiksen/nyc-events/internal/telegram"
)

// Notifier delivers a digest
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// FallbackNotifier prints the digest with Fallback when Primary fails. The
// primary error is still returned.
type FallbackNotifier struct {
	Primary  Notifier
	Fallback Notifier
}

// Notify implements Notifier
func (n *FallbackNotifier) Notify(ctx context.Context, subject, body string) error {
	err := n.Primary.Notify(ctx, subject, body)
	if err == nil {
		return nil
	}

	logger.Error("Failed to deliver digest", nil, err)
	logger.IncrCounter("notify.failures")
	if fbErr := n.Fallback.Notify(ctx, subject, body); fbErr != nil {
		logger.Error("Fallback delivery failed", nil, fbErr)
	}
	return err
}

// FromConfig builds the notifier for cfg.Notify.Channel. A channel without
// credentials, or no channel at all when nothing is configured, falls back to
// printing on out.
func FromConfig(cfg *config.Config, out io.Writer) (Notifier, error) {
	console := NewConsoleNotifier(out)

	channel := cfg.Notify.Channel
	if channel == "" {
		switch {
		case cfg.SMTP.Configured():
			channel = config.ChannelEmail
		case cfg.Telegram.Configured():
			channel = config.ChannelTelegram
		default:
			channel = config.ChannelConsole
		}
	}

	switch channel {
	case config.ChannelEmail:
		if !cfg.SMTP.Configured() {
			logger.Warn("Email credentials not configured, printing to console instead", nil)
			return console, nil
		}
		return &FallbackNotifier{Primary: NewEmailNotifier(cfg.SMTP), Fallback: console}, nil

	case config.ChannelTelegram:
		if !cfg.Telegram.Configured() {
			logger.Warn("Telegram credentials not configured, printing to console instead", nil)
			return console, nil
		}
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("creating telegram client: %w", err)
		}
		return &FallbackNotifier{Primary: NewTelegramNotifier(client), Fallback: console}, nil

	case config.ChannelConsole:
		return console, nil

	default:
		return nil, fmt.Errorf("unknown notify channel %q", channel)
	}
}
