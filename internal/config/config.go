package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Loans
		Auth
		Audit
		Tasks
		Maintenance
		Seed
		Demo
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Loans struct {
		PeriodDays  int // Days before a loan is overdue (default: 14)
		MaxRenewals int // Renewals allowed per loan (default: 2)
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Audit struct {
		RetentionDays int    // Days to keep audit events (default: 90)
		ArchiveDir    string // Pruned events are written here first; empty disables
	}
	Tasks struct {
		Enabled           bool
		DatabasePath      string
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		OverdueScanEnabled   bool
		OverdueScanSchedule  string // Cron format: "0 8 * * *" = daily at 08:00
		AuditCleanupEnabled  bool
		AuditCleanupSchedule string
	}
	Seed struct {
		OnStart        bool
		AdminEmail     string
		AdminName      string
		AdminPassword  string
		MemberEmail    string
		MemberName     string
		MemberPassword string
	}
	Demo struct {
		Enabled       bool          // Read-only demo mode
		DBPath        string        // Snapshot restored on every reset
		ResetInterval time.Duration // Interval between database resets
	}
	Metrics struct {
		Enabled bool
	}
)

// LoanPeriod is the loan period as a duration.
func (l Loans) LoanPeriod() time.Duration {
	return time.Duration(l.PeriodDays) * 24 * time.Hour
}

// AuditRetention is the audit retention as a duration.
func (a Audit) AuditRetention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Lending rules
	v.SetDefault("loan_period_days", 14)
	v.SetDefault("loan_max_renewals", 2)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_archive_dir", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Maintenance schedules
	v.SetDefault("overdue_scan_enabled", true)
	v.SetDefault("overdue_scan_schedule", "0 8 * * *")   // Daily at 08:00
	v.SetDefault("audit_cleanup_enabled", true)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *") // Daily at 03:30

	// Starter data
	v.SetDefault("seed_on_start", true)
	v.SetDefault("seed_admin_email", "admin@lib.sg")
	v.SetDefault("seed_admin_name", "Admin")
	v.SetDefault("seed_admin_password", "changeme-admin")
	v.SetDefault("seed_member_email", "poh@lib.sg")
	v.SetDefault("seed_member_name", "Peter Oh")
	v.SetDefault("seed_member_password", "changeme-member")

	// Demo mode defaults
	v.SetDefault("demo_mode", false)
	v.SetDefault("demo_db_path", DefaultDemoDatabasePath)
	v.SetDefault("demo_reset_interval", "15m")

	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Loans: Loans{
			PeriodDays:  v.GetInt("LOAN_PERIOD_DAYS"),
			MaxRenewals: v.GetInt("LOAN_MAX_RENEWALS"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
			ArchiveDir:    v.GetString("AUDIT_ARCHIVE_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DatabasePath:      v.GetString("TASKS_DATABASE_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			OverdueScanEnabled:   v.GetBool("OVERDUE_SCAN_ENABLED"),
			OverdueScanSchedule:  v.GetString("OVERDUE_SCAN_SCHEDULE"),
			AuditCleanupEnabled:  v.GetBool("AUDIT_CLEANUP_ENABLED"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Seed: Seed{
			OnStart:        v.GetBool("SEED_ON_START"),
			AdminEmail:     v.GetString("SEED_ADMIN_EMAIL"),
			AdminName:      v.GetString("SEED_ADMIN_NAME"),
			AdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
			MemberEmail:    v.GetString("SEED_MEMBER_EMAIL"),
			MemberName:     v.GetString("SEED_MEMBER_NAME"),
			MemberPassword: v.GetString("SEED_MEMBER_PASSWORD"),
		},
		Demo: Demo{
			Enabled:       v.GetBool("DEMO_MODE"),
			DBPath:        v.GetString("DEMO_DB_PATH"),
			ResetInterval: v.GetDuration("DEMO_RESET_INTERVAL"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}
