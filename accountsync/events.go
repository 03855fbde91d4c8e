package accountsync

import (
	"context"
	"sync/atomic"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransactionEvent is emitted after a synced transaction is written.
type TransactionEvent struct {
	Transaction models.Transaction
	AccountId   int
}

// Emitter decouples alert side-effects from the write path. Emission
// never blocks reconciliation; a full buffer drops the event.
type Emitter struct {
	ch   chan TransactionEvent
	sent atomic.Int64
	done chan struct{}
}

func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 256
	}
	return &Emitter{
		ch:   make(chan TransactionEvent, buffer),
		done: make(chan struct{}),
	}
}

func (e *Emitter) Emit(event TransactionEvent) {
	select {
	case e.ch <- event:
	default:
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "accountsync",
			"accountId": event.AccountId,
		}).Warn("transaction event buffer full, alert dropped")
	}
}

func (e *Emitter) NotificationsSent() int64 {
	return e.sent.Load()
}

// Start consumes events until ctx is cancelled or Close is called.
// Handler failures are logged and never propagate to the write path
// that emitted the event.
func (e *Emitter) Start(ctx context.Context, handler func(context.Context, TransactionEvent) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.done:
				return
			case event := <-e.ch:
				if err := handler(ctx, event); err != nil {
					config.LogError(config.GetLogger(), "accountsync", "Emitter.Start", "alert handler", event.AccountId, err)
					continue
				}
				e.sent.Add(1)
			}
		}
	}()
}

func (e *Emitter) Close() {
	close(e.done)
}

var largeTransactionThreshold = decimal.NewFromInt(1000)

// LargeTransactionAlert flags unusually large synced amounts. It is the
// default handler wired at startup; delivery to a push channel lives
// behind it.
func LargeTransactionAlert(ctx context.Context, event TransactionEvent) error {
	if event.Transaction.Amount.LessThan(largeTransactionThreshold) {
		return nil
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module":        "accountsync",
		"accountId":     event.AccountId,
		"transactionId": event.Transaction.ID,
		"amount":        event.Transaction.Amount.String(),
		"type":          event.Transaction.Type,
	}).Warn("large transaction synced")
	return nil
}
