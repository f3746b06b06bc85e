package notify

import (
	"context"

	"github.com/pokewonder/pokewonder/internal/logger"
)

// ConsoleNotifier logs messages instead of delivering them. Used for dry
// runs and when no Telegram credentials are configured.
type ConsoleNotifier struct {
	log *logger.Logger
}

// NewConsoleNotifier creates a console notifier.
func NewConsoleNotifier(log *logger.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{log: log}
}

// Send logs the message at info level.
func (n *ConsoleNotifier) Send(_ context.Context, message string) error {
	n.log.Info().Str("message", message).Msg("notification (dry run)")
	return nil
}
