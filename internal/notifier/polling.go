package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received. A non-empty
// return value is sent back to the chat.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling long-polls Telegram for commands from the configured chat.
// Messages from other chats are ignored. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || strings.TrimSpace(msg.Text) == "" {
				continue
			}
			if msg.Chat == nil || msg.Chat.ID != t.chatID {
				t.logger.Warn().Int64("chat_id", chatID(msg)).Msg("Ignoring message from unknown chat")
				continue
			}
			text := strings.TrimSpace(msg.Text)
			t.logger.Info().Str("command", text).Msg("Received command")
			reply := handler(ctx, text)
			if reply == "" {
				continue
			}
			if err := t.SendWithRetry(ctx, reply); err != nil {
				t.logger.Error().Err(err).Msg("Failed to send reply")
			}
		}
	}
}

func chatID(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}
