// Package notify delivers alert messages to a human. Delivery is
// best-effort: failures are logged by the caller and the next cycle's
// cooldown logic provides the retry path.
package notify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier sends messages to one chat through the Bot API.
type TelegramNotifier struct {
	bot     *tele.Bot
	chatID  int64
	limiter *rate.Limiter
}

// NewTelegramNotifier creates a notifier. Sends are paced to one message per
// second, the Bot API's per-chat limit.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram credentials missing (BOT_TOKEN, CHAT_ID)")
	}
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &TelegramNotifier{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Send delivers one message.
func (n *TelegramNotifier) Send(ctx context.Context, message string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.bot.Send(tele.ChatID(n.chatID), message, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
