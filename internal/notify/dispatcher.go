package notify

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

// Dispatcher drains the notification outbox. It runs as a background
// goroutine for the lifetime of the process and exits when ctx is cancelled.
type Dispatcher struct {
	DB        *pgxpool.Pool
	Sender    Sender
	Interval  time.Duration
	BatchSize int
}

func (d Dispatcher) Run(ctx context.Context) {
	interval := d.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	batch := d.BatchSize
	if batch <= 0 {
		batch = 50
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.drain(ctx, batch); err != nil {
				log.Printf("notify: dispatch pass failed: %v", err)
			}
		}
	}
}

func (d Dispatcher) drain(ctx context.Context, batch int) error {
	return db.WithTx(ctx, d.DB, func(tx pgx.Tx) error {
		items, err := claimPending(ctx, tx, batch)
		if err != nil {
			return err
		}
		for _, n := range items {
			if err := d.Sender.Send(ctx, n); err != nil {
				log.Printf("notify: send %s (attempt %d) failed: %v", n.ID, n.Attempts+1, err)
				if err := markFailed(ctx, tx, n.ID); err != nil {
					return err
				}
				continue
			}
			if err := markSent(ctx, tx, n.ID, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}
