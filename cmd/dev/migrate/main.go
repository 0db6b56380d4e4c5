package main

import (
	"log"

	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

func main() {
	cfg := config.Load()

	path := cfg.MigrationsPath
	if path == "" {
		path = "file://migrations"
	}
	if err := db.Migrate(path, cfg); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrations applied from %s", path)
}
