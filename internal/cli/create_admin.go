package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
)

// CreateAdminCommand adds an administrator account.
type CreateAdminCommand struct {
	DatabasePath string
	Email        string
	Name         string
	Password     string

	authCfg config.Auth
}

func NewCreateAdminCommand(authCfg config.Auth) *CreateAdminCommand {
	return &CreateAdminCommand{authCfg: authCfg}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.Email, "email", "", "Email address of the administrator (required)")
	fs.StringVar(&cmd.Name, "name", "Administrator", "Display name")
	fs.StringVar(&cmd.Password, "password", os.Getenv("ADMIN_PASSWORD"), "Password, defaults to $ADMIN_PASSWORD")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ADMIN_PASSWORD=s3cret-pass %s create-admin -email librarian@lib.sg\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		fs.Usage()
		return fmt.Errorf("email is required")
	}
	if cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("password is required")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	user, err := auth.NewService(db.DB, cmd.authCfg).CreateAdmin(context.Background(), auth.RegisterInput{
		Name:     cmd.Name,
		Email:    cmd.Email,
		Password: cmd.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Created administrator %s (id=%d)\n", user.Email, user.ID)
	return nil
}
