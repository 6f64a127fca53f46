// Command seed_demo builds the demo database snapshot that demo mode restores
// on start.
// Usage: go run ./cmd/seed_demo [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/cli"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/loans"
)

func main() {
	cfg := config.NewConfig()

	dbPath := flag.String("db", config.DefaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Start fresh so the snapshot only holds demo data.
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	seed, err := catalog.DefaultSeed()
	if err != nil {
		log.Fatalf("Failed to load starter catalog: %v", err)
	}

	ctx := context.Background()
	result, err := cli.SeedLibrary(ctx, db, seed, cfg.Seed, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to seed library: %v", err)
	}
	log.Printf("Saved %d books and %d accounts", result.Books, result.Users)

	policy := loans.Policy{LoanPeriod: cfg.Loans.LoanPeriod(), MaxRenewals: cfg.Loans.MaxRenewals}
	n, err := cli.SeedDemoLoans(ctx, db, policy, cfg.Auth, time.Now().UTC())
	if err != nil {
		log.Fatalf("Failed to create demo loans: %v", err)
	}
	log.Printf("Saved %d demo loans", n)

	log.Println("Demo database generated successfully!")
}
