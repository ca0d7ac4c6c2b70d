package pipeline

import "context"

// Notifier is a single-slot wake signal. Any number of Signal calls made
// before the consumer wakes collapse into one wake-up, so consumers must
// work out how much is pending from the store length, never from the
// number of wakes.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Signal marks new work as available. It never blocks.
func (n *Notifier) Signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives one value per coalesced batch.
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// Wait blocks until a signal is pending or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
