package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
)

var errNotConfirmed = errors.New("refusing to wipe the database without -yes")

// ResetDBCommand wipes every loan, book and account and then loads the
// starter catalog and seed accounts again. Audit events survive.
type ResetDBCommand struct {
	DatabasePath string
	Confirm      bool
	Reseed       bool

	cfg *config.Config
}

func NewResetDBCommand(cfg *config.Config) *ResetDBCommand {
	return &ResetDBCommand{cfg: cfg}
}

func (cmd *ResetDBCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset-db", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.Confirm, "yes", false, "Confirm that all loans, books and accounts should be deleted")
	fs.BoolVar(&cmd.Reseed, "reseed", true, "Load the starter catalog and seed accounts after wiping")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset-db -yes [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete every loan, book and account, then reseed. The audit log is kept.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cmd.Confirm {
		fs.Usage()
		return errNotConfirmed
	}
	return nil
}

func (cmd *ResetDBCommand) Run() error {
	if !cmd.Confirm {
		return errNotConfirmed
	}
	if _, err := os.Stat(cmd.DatabasePath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", cmd.DatabasePath)
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

	if err := db.Reset(); err != nil {
		return err
	}
	fmt.Printf("Database %s has been reset\n", cmd.DatabasePath)

	if !cmd.Reseed {
		return nil
	}
	seed, err := catalog.DefaultSeed()
	if err != nil {
		return err
	}
	result, err := SeedLibrary(context.Background(), db, seed, cmd.cfg.Seed, cmd.cfg.Auth)
	if err != nil {
		return err
	}
	fmt.Printf("Added %d books and %d accounts\n", result.Books, result.Users)
	return nil
}
