package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

// Runs the draft purge directly against the database, bypassing the HTTP
// cron endpoint. Handy for local cleanup and for backfilling after a TTL
// change.
func main() {
	days := flag.Int("days", 0, "override DRAFT_TTL_DAYS")
	dryRun := flag.Bool("dry-run", false, "report the cutoff without deleting")
	flag.Parse()

	cfg := config.Load()
	ttlDays := cfg.DraftTTLDays
	if *days > 0 {
		ttlDays = *days
	}
	cutoff := time.Now().AddDate(0, 0, -ttlDays)

	if *dryRun {
		log.Printf("dry run: would purge drafts not updated since %s", cutoff.Format(time.RFC3339))
		return
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	n, err := booking.NewRepository(pool).PurgeDrafts(ctx, cutoff)
	if err != nil {
		log.Fatalf("purge: %v", err)
	}
	log.Printf("purged %d drafts older than %s", n, cutoff.Format(time.RFC3339))
}
