package notification

import (
	"context"

	"ticketpro/pkg/logger"

	"go.uber.org/zap"
)

// Worker drains the queue into the Notifier. Send failures are logged and
// the message dropped; the state change that produced it already committed.
type Worker struct {
	notifier Notifier
	queue    Queue
}

func NewWorker(notifier Notifier, queue Queue) *Worker {
	return &Worker{
		notifier: notifier,
		queue:    queue,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("notification_worker")

	go func() {
		for msg := range msgs {
			if err := w.notifier.Send(ctx, msg.Data); err != nil {
				log.Warn("failed to send notification",
					zap.String("kind", string(msg.Data.Kind)),
					zap.String("recipient", msg.Data.Recipient),
					zap.Error(err),
				)
				msg.Nack(false)
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}
