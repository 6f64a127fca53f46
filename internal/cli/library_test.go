package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/loans"
)

var testAuth = config.Auth{BcryptCost: 4}

var testAccounts = config.Seed{
	AdminEmail:     "admin@lib.sg",
	AdminName:      "Admin",
	AdminPassword:  "changeme-admin",
	MemberEmail:    "poh@lib.sg",
	MemberName:     "Peter Oh",
	MemberPassword: "changeme-member",
}

func openTestDB(t *testing.T) (*database.Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elibrary.db")
	db, err := database.Open(path, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func seedLibrary(t *testing.T, db *database.Database) {
	t.Helper()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	_, err = SeedLibrary(context.Background(), db, seed, testAccounts, testAuth)
	require.NoError(t, err)
}

func TestSeedLibrary(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)

	result, err := SeedLibrary(ctx, db, seed, testAccounts, testAuth)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Books: len(seed), Users: 2}, result)

	svc := auth.NewService(db.DB, testAuth)
	admin, err := svc.Authenticate(ctx, "admin@lib.sg", "changeme-admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	member, err := svc.Authenticate(ctx, "poh@lib.sg", "changeme-member")
	require.NoError(t, err)
	assert.False(t, member.IsAdmin)

	t.Run("second run adds nothing", func(t *testing.T) {
		result, err := SeedLibrary(ctx, db, seed, testAccounts, testAuth)
		require.NoError(t, err)
		assert.Equal(t, SeedResult{}, result)
	})
}

func TestSeedLibrary_SkipsIncompleteAccounts(t *testing.T) {
	db, _ := openTestDB(t)

	result, err := SeedLibrary(context.Background(), db, nil, config.Seed{AdminEmail: "admin@lib.sg"}, testAuth)
	require.NoError(t, err)
	assert.Zero(t, result.Users)
}

func TestSeedLibrary_RejectsWeakPassword(t *testing.T) {
	db, _ := openTestDB(t)
	accounts := testAccounts
	accounts.MemberPassword = "short"

	_, err := SeedLibrary(context.Background(), db, nil, accounts, testAuth)
	assert.Error(t, err)
}

func TestSeedDemoLoans(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	seedLibrary(t, db)

	n, err := SeedDemoLoans(ctx, db, loans.DefaultPolicy(), testAuth, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, len(demoLoans), n)

	var active int64
	require.NoError(t, db.DB.Model(&entities.Loan{}).Where("return_date IS NULL").Count(&active).Error)
	assert.EqualValues(t, 4, active)

	var copies, available int
	require.NoError(t, db.DB.Model(&entities.Book{}).Select("SUM(copies)").Scan(&copies).Error)
	require.NoError(t, db.DB.Model(&entities.Book{}).Select("SUM(available)").Scan(&available).Error)
	assert.Equal(t, copies-int(active), available)

	overdue, err := loans.NewManager(db.DB, nil, loans.DefaultPolicy()).OverdueReport(ctx)
	require.NoError(t, err)
	assert.Len(t, overdue, 2)

	var renewed entities.Loan
	require.NoError(t, db.DB.Where("renew_count = 1").First(&renewed).Error)
	assert.True(t, renewed.IsActive())
}

func TestResetDBCommand(t *testing.T) {
	cfg := &config.Config{Seed: testAccounts, Auth: testAuth}

	t.Run("requires confirmation", func(t *testing.T) {
		cmd := NewResetDBCommand(cfg)
		assert.ErrorIs(t, cmd.ParseFlags([]string{"-db", "x.db"}), errNotConfirmed)
		assert.ErrorIs(t, cmd.Run(), errNotConfirmed)
	})

	t.Run("missing database", func(t *testing.T) {
		cmd := NewResetDBCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-yes", "-db", filepath.Join(t.TempDir(), "none.db")}))
		assert.Error(t, cmd.Run())
	})

	t.Run("wipes the library", func(t *testing.T) {
		db, path := openTestDB(t)
		seedLibrary(t, db)

		cmd := NewResetDBCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-yes", "-reseed=false", "-db", path}))
		require.NoError(t, cmd.Run())

		var books, users int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&books).Error)
		require.NoError(t, db.DB.Model(&entities.User{}).Count(&users).Error)
		assert.Zero(t, books)
		assert.Zero(t, users)
	})

	t.Run("reseeds by default", func(t *testing.T) {
		db, path := openTestDB(t)
		seedLibrary(t, db)
		_, err := SeedDemoLoans(context.Background(), db, loans.DefaultPolicy(), testAuth, time.Now().UTC())
		require.NoError(t, err)

		cmd := NewResetDBCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-yes", "-db", path}))
		require.NoError(t, cmd.Run())

		var books, users, loanCount int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&books).Error)
		require.NoError(t, db.DB.Model(&entities.User{}).Count(&users).Error)
		require.NoError(t, db.DB.Model(&entities.Loan{}).Count(&loanCount).Error)
		assert.EqualValues(t, 10, books)
		assert.EqualValues(t, 2, users)
		assert.Zero(t, loanCount)
	})
}

func TestCreateAdminCommand(t *testing.T) {
	t.Run("email is required", func(t *testing.T) {
		cmd := NewCreateAdminCommand(testAuth)
		assert.Error(t, cmd.ParseFlags([]string{"-password", "long-enough-pass"}))
	})

	t.Run("creates an administrator once", func(t *testing.T) {
		db, path := openTestDB(t)

		cmd := NewCreateAdminCommand(testAuth)
		require.NoError(t, cmd.ParseFlags([]string{"-db", path, "-email", "Librarian@Lib.sg", "-password", "long-enough-pass"}))
		require.NoError(t, cmd.Run())

		var user entities.User
		require.NoError(t, db.DB.Where("email = ?", "librarian@lib.sg").First(&user).Error)
		assert.True(t, user.IsAdmin)
		assert.Equal(t, "Administrator", user.Name)

		assert.ErrorIs(t, cmd.Run(), auth.ErrUserExists)
	})
}

func TestSeedCommand_LoadSeed(t *testing.T) {
	cfg := &config.Config{}

	t.Run("bundled catalog", func(t *testing.T) {
		cmd := NewSeedCommand(cfg)
		require.NoError(t, cmd.ParseFlags(nil))
		books, err := cmd.LoadSeed()
		require.NoError(t, err)
		assert.Len(t, books, 10)
	})

	t.Run("catalog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "books.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"title":"Matilda","category":"Children","copies":1}]`), 0o644))

		cmd := NewSeedCommand(cfg)
		require.NoError(t, cmd.ParseFlags([]string{"-catalog", path}))
		books, err := cmd.LoadSeed()
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Matilda", books[0].Title)
	})
}

func TestSeedCommand_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeded.db")
	cfg := &config.Config{Seed: testAccounts, Auth: testAuth, Loans: config.Loans{PeriodDays: 14, MaxRenewals: 2}}

	cmd := NewSeedCommand(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"-db", path, "-no-users", "-demo-loans"}))
	require.NoError(t, cmd.Run())

	db, err := database.Open(path, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	defer db.Close()

	var admins int64
	require.NoError(t, db.DB.Model(&entities.User{}).Where("is_admin = ?", true).Count(&admins).Error)
	assert.Zero(t, admins)

	var loanCount int64
	require.NoError(t, db.DB.Model(&entities.Loan{}).Count(&loanCount).Error)
	assert.EqualValues(t, len(demoLoans), loanCount)
}
