package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/loans"
)

// SeedCommand fills an empty database with the starter catalog and accounts.
type SeedCommand struct {
	DatabasePath string
	CatalogPath  string
	SkipUsers    bool
	DemoLoans    bool
	Verbose      bool

	cfg *config.Config
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{cfg: cfg}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.CatalogPath, "catalog", "", "JSON file with books to load instead of the bundled catalog")
	fs.BoolVar(&cmd.SkipUsers, "no-users", false, "Do not create the configured admin and member accounts")
	fs.BoolVar(&cmd.DemoLoans, "demo-loans", false, "Also create demo members with sample loans")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load the starter catalog into an empty database and create the seed accounts.\n")
		fmt.Fprintf(os.Stderr, "Accounts come from the SEED_* environment variables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -db ./elibrary.db -catalog ./books.json -no-users\n", os.Args[0])
	}

	return fs.Parse(args)
}

// LoadSeed returns the books from CatalogPath, or the bundled catalog when
// no path was given.
func (cmd *SeedCommand) LoadSeed() ([]catalog.SeedBook, error) {
	if cmd.CatalogPath == "" {
		return catalog.DefaultSeed()
	}
	data, err := os.ReadFile(cmd.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return catalog.ParseSeed(data)
}

func (cmd *SeedCommand) Run() error {
	if cmd.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	seed, err := cmd.LoadSeed()
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	accounts := cmd.cfg.Seed
	if cmd.SkipUsers {
		accounts = config.Seed{}
	}

	ctx := context.Background()
	result, err := SeedLibrary(ctx, db, seed, accounts, cmd.cfg.Auth)
	if err != nil {
		return err
	}
	fmt.Printf("Added %d books and %d accounts\n", result.Books, result.Users)

	if cmd.DemoLoans {
		n, err := SeedDemoLoans(ctx, db, loansPolicy(cmd.cfg.Loans), cmd.cfg.Auth, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("Added %d demo loans\n", n)
	}
	return nil
}

func loansPolicy(cfg config.Loans) loans.Policy {
	return loans.Policy{LoanPeriod: cfg.LoanPeriod(), MaxRenewals: cfg.MaxRenewals}
}
