package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/loans"
)

// SeedResult counts what SeedLibrary inserted.
type SeedResult struct {
	Books int
	Users int
}

// SeedLibrary loads the starter catalog into an empty database and makes sure
// the configured admin and member accounts exist. Accounts without an email
// or password are skipped.
func SeedLibrary(ctx context.Context, db *database.Database, seed []catalog.SeedBook, accounts config.Seed, authCfg config.Auth) (SeedResult, error) {
	var result SeedResult

	n, err := catalog.NewService(db.DB).Seed(ctx, seed)
	if err != nil {
		return result, fmt.Errorf("seed catalog: %w", err)
	}
	result.Books = n

	authService := auth.NewService(db.DB, authCfg)
	for _, acc := range []struct {
		in      auth.RegisterInput
		isAdmin bool
	}{
		{auth.RegisterInput{Name: accounts.AdminName, Email: accounts.AdminEmail, Password: accounts.AdminPassword}, true},
		{auth.RegisterInput{Name: accounts.MemberName, Email: accounts.MemberEmail, Password: accounts.MemberPassword}, false},
	} {
		if acc.in.Email == "" || acc.in.Password == "" {
			continue
		}
		_, created, err := authService.EnsureUser(ctx, acc.in, acc.isAdmin)
		if err != nil {
			return result, fmt.Errorf("seed account %s: %w", acc.in.Email, err)
		}
		if created {
			result.Users++
			log.Printf("Created account %s (admin=%v)", acc.in.Email, acc.isAdmin)
		}
	}

	return result, nil
}

// demoMembers borrow the demo loans.
var demoMembers = []auth.RegisterInput{
	{Name: "Alice Tan", Email: "alice@lib.sg", Password: "demo-password"},
	{Name: "Ben Lim", Email: "ben@lib.sg", Password: "demo-password"},
	{Name: "Chitra Nair", Email: "chitra@lib.sg", Password: "demo-password"},
}

// demoLoan is one loan placed by SeedDemoLoans. Borrowed is how long ago it
// was taken out; Returned is how long ago it came back, zero for still out.
type demoLoan struct {
	member   int
	book     int
	borrowed time.Duration
	returned time.Duration
	renewals int
}

var demoLoans = []demoLoan{
	{member: 0, book: 0, borrowed: 3 * 24 * time.Hour},
	{member: 0, book: 2, borrowed: 20 * 24 * time.Hour},
	{member: 1, book: 1, borrowed: 10 * 24 * time.Hour, renewals: 1},
	{member: 1, book: 3, borrowed: 30 * 24 * time.Hour, returned: 20 * 24 * time.Hour},
	{member: 2, book: 4, borrowed: 40 * 24 * time.Hour},
	{member: 2, book: 5, borrowed: 12 * 24 * time.Hour, returned: 2 * 24 * time.Hour},
}

// SeedDemoLoans creates the demo members and a mix of current, overdue and
// returned loans against the seeded catalog. It goes through the loan manager
// so availability stays consistent.
func SeedDemoLoans(ctx context.Context, db *database.Database, policy loans.Policy, authCfg config.Auth, now time.Time) (int, error) {
	authService := auth.NewService(db.DB, authCfg)
	members := make([]*entities.User, 0, len(demoMembers))
	for _, in := range demoMembers {
		user, _, err := authService.EnsureUser(ctx, in, false)
		if err != nil {
			return 0, fmt.Errorf("demo member %s: %w", in.Email, err)
		}
		members = append(members, user)
	}

	books, err := catalog.NewService(db.DB).ListBooks(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}

	manager := loans.NewManager(db.DB, nil, policy)
	created := 0
	for _, dl := range demoLoans {
		if dl.book >= len(books) {
			continue
		}
		manager.SetClock(func() time.Time { return now.Add(-dl.borrowed) })
		loan, err := manager.CreateLoan(ctx, members[dl.member], books[dl.book].ID)
		if err != nil {
			return created, fmt.Errorf("demo loan of %q: %w", books[dl.book].Title, err)
		}
		for i := 0; i < dl.renewals; i++ {
			if _, err := manager.RenewLoan(ctx, loan.ID); err != nil {
				return created, fmt.Errorf("renew demo loan %d: %w", loan.ID, err)
			}
		}
		if dl.returned > 0 {
			manager.SetClock(func() time.Time { return now.Add(-dl.returned) })
			if _, err := manager.ReturnLoan(ctx, loan.ID); err != nil {
				return created, fmt.Errorf("return demo loan %d: %w", loan.ID, err)
			}
		}
		created++
	}

	log.Printf("Created %d demo loans", created)
	return created, nil
}
