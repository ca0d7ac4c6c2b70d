package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNotifierCoalesces(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	for i := 0; i < 10; i++ {
		n.Signal()
	}

	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Wait err = %v, want deadline exceeded", err)
	}
}

func TestNotifierSignalBeforeWait(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	n.Signal()
	select {
	case <-n.C():
	case <-time.After(time.Second):
		t.Fatal("signal sent before wait was lost")
	}
}
