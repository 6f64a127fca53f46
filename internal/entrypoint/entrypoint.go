package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/cli"
	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/database"
	auditRepo "github.com/mrlokans/elibrary/internal/database/audit"
	"github.com/mrlokans/elibrary/internal/demo"
	http_controllers "github.com/mrlokans/elibrary/internal/http"
	"github.com/mrlokans/elibrary/internal/loans"
	"github.com/mrlokans/elibrary/internal/scheduler"
	"github.com/mrlokans/elibrary/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT. SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the background workers go away.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting eLibrary v%s", version)

	var demoMiddleware *demo.Middleware
	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled - write operations will be blocked")
		demoMiddleware = demo.NewMiddleware(true)
		if err := prepareDemoDatabase(cfg.Demo, cfg.Database.Path); err != nil {
			log.Fatalf("Failed to prepare demo database: %v", err)
		}
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx := context.Background()
	if cfg.Seed.OnStart {
		if err := seedOnStart(ctx, db, cfg); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	catalogService := catalog.NewService(db.DB)
	loanManager := loans.NewManager(db.DB, nil, loanPolicy(cfg.Loans))
	log.Printf("Loan policy: %v period, %d renewals", loanManager.Policy().LoanPeriod, loanManager.Policy().MaxRenewals)

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	if cfg.Audit.ArchiveDir != "" {
		auditService.SetArchiver(audit.NewArchiver(cfg.Audit.ArchiveDir))
		log.Printf("Pruned audit events will be archived to %s", cfg.Audit.ArchiveDir)
	}

	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager)
	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))

	csrfSecret, generated, err := csrfSecretFrom(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	if generated {
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	if hasUsers, err := authService.HasUsers(ctx); err == nil && !hasUsers {
		log.Printf("No accounts found. Run '%s create-admin' to add an administrator.", os.Args[0])
	}

	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewScanOverdueLoansQueue(loanManager, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService, auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(ctx)
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance, cfg.Audit)
		if err := maintenance.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled, maintenance jobs will not run")
	}

	var resetter *demo.Resetter
	if cfg.Demo.Enabled {
		resetter = demo.NewResetter(cfg.Demo.ResetInterval, demoReset(db, cfg))
		resetter.Start(ctx)
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:            catalogService,
		Loans:              loanManager,
		Database:           db,
		Audit:              auditService,
		AuthService:        authService,
		AuthMiddleware:     authMiddleware,
		SessionManager:     sessionManager,
		RateLimiter:        rateLimiter,
		CSRFSecret:         csrfSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		TemplatesPath:      cfg.UI.TemplatesPath,
		StaticPath:         cfg.UI.StaticPath,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		DemoMiddleware:     demoMiddleware,
		MetricsEnabled:     cfg.Metrics.Enabled,
		Version:            version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if resetter != nil {
			resetter.Stop()
		}
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		rateLimiter.Stop()
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}

func loanPolicy(cfg config.Loans) loans.Policy {
	return loans.Policy{LoanPeriod: cfg.LoanPeriod(), MaxRenewals: cfg.MaxRenewals}
}

// csrfSecretFrom decodes a hex secret, falls back to the raw bytes of a
// non-hex one, and generates a fresh secret when none is configured.
func csrfSecretFrom(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, false, nil
		}
		return []byte(configured), false, nil
	}

	fresh, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, false, err
	}
	secret, err = hex.DecodeString(fresh)
	return secret, true, err
}

// prepareDemoDatabase copies the demo snapshot over the live database path.
// Without a snapshot the live database is seeded on start instead.
func prepareDemoDatabase(cfg config.Demo, dbPath string) error {
	if cfg.DBPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		log.Printf("Demo snapshot %s not found, seeding a fresh database", cfg.DBPath)
		return nil
	}
	if err := demo.RestoreSnapshot(cfg.DBPath, dbPath); err != nil {
		return err
	}
	log.Printf("Restored demo snapshot %s to %s", cfg.DBPath, dbPath)
	return nil
}

func seedOnStart(ctx context.Context, db *database.Database, cfg *config.Config) error {
	seed, err := catalog.DefaultSeed()
	if err != nil {
		return err
	}
	result, err := cli.SeedLibrary(ctx, db, seed, cfg.Seed, cfg.Auth)
	if err != nil {
		return err
	}
	if cfg.Demo.Enabled && result.Books > 0 {
		if _, err := cli.SeedDemoLoans(ctx, db, loanPolicy(cfg.Loans), cfg.Auth, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// demoReset wipes the live data and seeds the demo library again.
func demoReset(db *database.Database, cfg *config.Config) demo.ResetFunc {
	return func(ctx context.Context) error {
		if err := db.Reset(); err != nil {
			return err
		}
		seed, err := catalog.DefaultSeed()
		if err != nil {
			return err
		}
		if _, err := cli.SeedLibrary(ctx, db, seed, cfg.Seed, cfg.Auth); err != nil {
			return err
		}
		_, err = cli.SeedDemoLoans(ctx, db, loanPolicy(cfg.Loans), cfg.Auth, time.Now().UTC())
		return err
	}
}
