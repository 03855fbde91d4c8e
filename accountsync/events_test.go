package accountsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adepafin/adepa_backend/models"
)

func waitForNotifications(t *testing.T, e *Emitter, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.NotificationsSent() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications, got %d", want, e.NotificationsSent())
}

func TestEmitterCountsHandledEvents(t *testing.T) {
	e := NewEmitter(8)
	defer e.Close()

	e.Start(context.Background(), func(ctx context.Context, event TransactionEvent) error {
		if event.AccountId == 2 {
			return errors.New("push gateway down")
		}
		return nil
	})

	for _, id := range []int{1, 2, 3} {
		e.Emit(TransactionEvent{AccountId: id, Transaction: models.Transaction{ID: id}})
	}

	// The failing handler call is logged and skipped, never counted.
	waitForNotifications(t, e, 2)
}

func TestEmitterDropsWhenBufferFull(t *testing.T) {
	e := NewEmitter(1)
	defer e.Close()

	// No consumer is running, so the second emit cannot block.
	done := make(chan struct{})
	go func() {
		e.Emit(TransactionEvent{AccountId: 1})
		e.Emit(TransactionEvent{AccountId: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}
