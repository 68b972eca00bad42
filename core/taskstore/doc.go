// Package taskstore persists tasks and their event history in PostgreSQL
// and implements every status transition of the task lifecycle: claiming due
// work for dispatch, atomic worker claims, retry accounting with a bounded
// budget, dead-worker recovery, and idempotent finalization.
//
// # Basic Usage
//
//	pool, err := pg.Connect(ctx, pgCfg)
//	if err != nil {
//		return err
//	}
//	store, err := taskstore.New(pool, taskstore.WithMaxRetries(3))
//	if err != nil {
//		return err
//	}
//
//	created, err := store.Create(ctx, task.Task{
//		Title:    "send_email",
//		OwnerID:  "user-42",
//		Priority: task.PriorityHigh,
//		Payload:  `{"to":"user@example.com"}`,
//	})
//
// # Dispatch Transactions
//
// ClaimDueBatch locks due rows with FOR UPDATE SKIP LOCKED and must run
// inside a transaction opened via WithinTx, so concurrent schedulers never
// dispatch the same row twice:
//
//	err := store.WithinTx(ctx, func(ctx context.Context) error {
//		due, err := store.ClaimDueBatch(ctx, time.Now(), 100)
//		if err != nil {
//			return err
//		}
//		// push messages to the broker, then:
//		return store.BatchUpdateStatus(ctx, ids(due), task.StatusQueued, time.Now())
//	})
//
// # Retry Accounting
//
// MarkForRetry increments the retry count first and compares it against the
// configured budget. Within budget the task returns to PENDING with a
// backoff-shifted scheduled_at; past it the task fails permanently:
//
//	outcome, err := store.MarkForRetry(ctx, id, "handler error", time.Now(), 10*time.Second)
//	if outcome.Retried {
//		log.Info("task will retry", "remaining", outcome.RetriesRemaining)
//	}
//
// # Finalization
//
// MarkCompleted and MarkFailed are idempotent: repeating the same terminal
// transition is a no-op success, while conflicting transitions return
// ErrTaskTerminal. Completed results are stored in full on the task row and
// truncated on the event record.
//
// # Testing
//
// NewMemory returns an in-memory store with the same transition rules and
// the same WithinTx contract, for unit tests and local development.
package taskstore
