package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. It stands in for the real
// delivery channel, which lives in a separate service.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, notification Notification) error {
	n.log.Info("notification dispatched",
		zap.String("kind", string(notification.Kind)),
		zap.String("recipient", notification.Recipient),
		zap.Any("data", notification.Data),
	)
	return nil
}
