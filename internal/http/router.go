package http

import (
	"html/template"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/metrics"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Format(dueDateLayout)
	},
	"formatDatePtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(dueDateLayout)
	},
	"join":     strings.Join,
	"contains": slices.Contains[[]string, string],
	"add": func(a, b int) int {
		return a + b
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Page templates are loaded from cfg.TemplatesPath when it is set.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	if cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.InjectContext())
		router.Use(cfg.DemoMiddleware.Handler())
	}

	if cfg.TemplatesPath != "" {
		tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(cfg.TemplatesPath, "*.html")))
		router.SetHTMLTemplate(tmpl)
	}
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// A nil *audit.Service must not become a non-nil interface.
	var auditLogger AuditLogger
	if cfg.Audit != nil {
		auditLogger = cfg.Audit
	}

	if cfg.AuthService != nil {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath, cfg.RateLimiter)
		if cfg.Audit != nil {
			authController.SetAuditService(cfg.Audit)
		}
		authController.RegisterRoutes(router)

		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", tokenController.GenerateToken)
		router.DELETE("/api/auth/token", tokenController.RevokeToken)

		profileController := NewProfileController(cfg.AuthService)
		router.GET("/profile", profileController.ProfilePage)
		router.POST("/profile/password", profileController.ChangePassword)
		router.POST("/profile/token", profileController.GenerateToken)
		router.POST("/profile/token/revoke", profileController.RevokeToken)
	}

	health := NewHealthController(cfg.Database, cfg.Version, cfg.TaskQueue != nil)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	demoController := NewDemoController(cfg.DemoMiddleware)
	router.GET("/api/demo/status", demoController.GetStatus)

	booksController := NewBooksController(cfg.Catalog, auditLogger)
	loansController := NewLoansController(cfg.Loans, auditLogger)
	adminController := NewAdminController(cfg.Loans)
	// RequireAdmin only reads the identity set above, so a nil middleware still works.
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()

	// UI routes
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/books")
	})
	router.GET("/books", booksController.BooksPage)
	router.GET("/books/new", booksController.NewBookPage)
	router.GET("/books/:id", booksController.BookPage)
	router.POST("/books", booksController.CreateBook)

	router.GET("/loans", loansController.LoansPage)
	router.POST("/loans", loansController.CreateLoan)
	router.POST("/loans/:id/renew", loansController.RenewLoan)
	router.POST("/loans/:id/return", loansController.ReturnLoan)
	router.POST("/loans/:id/delete", loansController.DeleteLoan)

	router.GET("/admin/loans", requireAdmin, adminController.OverdueLoansPage)

	// JSON API
	api := router.Group("/api")
	api.GET("/books", booksController.APIListBooks)
	api.GET("/books/:id", booksController.APIGetBook)
	api.POST("/books", booksController.APICreateBook)

	api.GET("/loans", loansController.APIListLoans)
	api.POST("/loans", loansController.APICreateLoan)
	api.POST("/loans/:id/renew", loansController.APIRenewLoan)
	api.POST("/loans/:id/return", loansController.APIReturnLoan)
	api.DELETE("/loans/:id", loansController.APIDeleteLoan)

	admin := api.Group("/admin", requireAdmin)
	admin.GET("/loans/overdue", adminController.APIOverdueLoans)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		admin.GET("/audit", auditController.GetAuditEvents)
		admin.GET("/loans/:id/history", auditController.GetLoanHistory)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		admin.GET("/tasks/types", tasksController.ListTaskTypes)
		admin.GET("/tasks/:id", tasksController.GetTaskStatus)
		admin.POST("/tasks/:type/run", tasksController.RunTask)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"})
			return
		}
		c.Redirect(http.StatusFound, "/books")
	})

	return router
}
