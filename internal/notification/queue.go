package notification

import "context"

type Delivery struct {
	Data Notification
	Ack  func()
	Nack func(requeue bool)
}

type Queue interface {
	Publish(ctx context.Context, n Notification) error
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

// ChannelQueue is an in-process buffered queue. It decouples the commit path
// from delivery: publishers return as soon as the message is buffered.
type ChannelQueue struct {
	ch chan Notification
}

func NewChannelQueue(bufferSize int) *ChannelQueue {
	return &ChannelQueue{
		ch: make(chan Notification, bufferSize),
	}
}

func (q *ChannelQueue) Publish(ctx context.Context, n Notification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.ch:
				if !ok {
					return
				}

				delivery := Delivery{
					Data: n,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							select {
							case q.ch <- n:
							default:
								// queue full, drop; delivery is best-effort
							}
						}
					},
				}

				// The subscriber may stop receiving after cancellation, so the
				// handoff must not outlive the context.
				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
