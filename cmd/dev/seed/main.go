package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

// Seeds a local database with one user per role and a draft booking, then
// prints session tokens for poking the API by hand.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := user.NewRepository(pool)

	admin, err := users.Upsert(ctx, "Ada Admin", "admin@checa-lab.test", "CheCa Lab", user.RoleAdmin, user.AccountActive)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	staff, err := users.Upsert(ctx, "Sam Staff", "staff@checa-lab.test", "CheCa Lab", user.RoleStaff, user.AccountActive)
	if err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	customer, err := users.Upsert(ctx, "Carla Customer", "customer@university.test", "State University", user.RoleCustomer, user.AccountActive)
	if err != nil {
		log.Fatalf("seed customer: %v", err)
	}

	start := time.Now().AddDate(0, 0, 14)
	end := start.AddDate(0, 0, 3)
	draft, err := booking.NewRepository(pool).Create(ctx, customer.ID, booking.DraftInput{
		PreferredStart: &start,
		PreferredEnd:   &end,
		Items: []booking.ItemInput{
			{
				ServiceCode: "XRD-01", Name: "X-ray diffraction", Quantity: 2,
				UnitPrice: decimal.NewFromInt(150),
				AddOns: []booking.AddOnInput{
					{Code: "RUSH", Name: "Rush processing", Price: decimal.NewFromInt(50)},
				},
			},
			{ServiceCode: "FTIR-02", Name: "FTIR spectroscopy", Quantity: 1, UnitPrice: decimal.NewFromInt(90)},
		},
	})
	if err != nil {
		log.Fatalf("seed draft: %v", err)
	}
	log.Printf("seeded draft booking %s for %s", draft.ID, customer.Email)

	if cfg.AuthSecret == "" {
		log.Println("AUTH_SECRET not set, skipping token output")
		return
	}
	for _, u := range []*user.User{admin, staff, customer} {
		token, err := api.MintSessionToken(cfg.AuthSecret, u.ID, string(u.Role), string(u.Status), 24*time.Hour, time.Now())
		if err != nil {
			log.Fatalf("mint token for %s: %v", u.Email, err)
		}
		log.Printf("%-10s %s\n  %s", u.Role, u.Email, token)
	}
}
