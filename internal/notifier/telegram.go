package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/nyc-events/internal/logger"
)

// MessageSender sends text to a chat
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramNotifier sends the digest to a Telegram chat, subject first
type TelegramNotifier struct {
	client MessageSender
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(client MessageSender) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// Notify implements Notifier
func (n *TelegramNotifier) Notify(ctx context.Context, subject, body string) error {
	if err := n.client.SendMessage(ctx, subject+"\n\n"+body); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	logger.Info("Digest sent to Telegram", logger.Fields{"subject": subject})
	return nil
}
