package db

import (
	"context"
	"database/sql"
)

type TxFn func(ctx context.Context, tx *sql.Tx) error

type task struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker funnels every mutating transaction through one goroutine. With a
// single SQLite connection this keeps writers from fighting over the
// connection and gives each task a clean begin/commit envelope.
type Worker struct {
	db    *sql.DB
	tasks chan task
	done  chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:    db,
		tasks: make(chan task, 256),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) Close() {
	close(w.tasks)
	<-w.done
}

// Do runs fn inside a transaction on the worker goroutine and waits for
// the result. If the caller's context expires while the task is queued or
// executing, Do returns early; the worker still finishes the transaction
// and the result is discarded into the buffered channel.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)

	select {
	case w.tasks <- task{ctx: ctx, fn: fn, ch: ch}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for t := range w.tasks {
		tx, err := w.db.BeginTx(t.ctx, nil)
		if err != nil {
			t.ch <- err
			continue
		}

		if err := t.fn(t.ctx, tx); err != nil {
			_ = tx.Rollback()
			t.ch <- err
			continue
		}

		t.ch <- tx.Commit()
	}
}
