package auth

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/metrics"
	"github.com/mrlokans/elibrary/internal/validation"
)

const (
	defaultLandingPath   = "/books"
	invalidCredentialMsg = "Invalid email or password"
)

// isLocalPath reports whether path is safe to redirect to: an absolute path
// on this host, with no scheme, protocol-relative prefix or backslash.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return false
	}
	return !strings.Contains(path, "\\")
}

func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return defaultLandingPath
}

// AuthController serves the login, registration and logout pages.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	rateLimiter    *RateLimiter
	auditService   *audit.Service
}

// NewAuthController parses templates from <templatesPath>/auth. When none are
// found the controller answers with JSON instead.
func NewAuthController(service *Service, sessionManager *SessionManager, templatesPath string, rateLimiter *RateLimiter) *AuthController {
	tmpl, err := template.ParseGlob(filepath.Join(templatesPath, "auth", "*.html"))
	if err != nil {
		tmpl = nil
	}

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      tmpl,
		rateLimiter:    rateLimiter,
	}
}

// SetAuditService enables audit records for logins, logouts and sign-ups.
func (ac *AuthController) SetAuditService(a *audit.Service) {
	ac.auditService = a
}

// RegisterRoutes mounts the auth pages on router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	if ac.rateLimiter != nil {
		router.POST("/login", ac.rateLimiter.Middleware(), ac.Login)
	} else {
		router.POST("/login", ac.Login)
	}
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, defaultLandingPath)
		return
	}

	ac.renderTemplate(c, http.StatusOK, "login.html", gin.H{
		"Title": "Log in",
		"Next":  sanitizeRedirectPath(c.Query("next")),
		"Error": c.Query("error"),
	})
}

// Login checks the submitted email and password and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	renderError := func(status int, msg string) {
		ac.renderTemplate(c, status, "login.html", gin.H{
			"Title": "Log in",
			"Next":  next,
			"Email": email,
			"Error": msg,
		})
	}

	if ac.rateLimiter != nil {
		if allowed, _ := ac.rateLimiter.Allow(clientIP, email); !allowed {
			renderError(http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
	}

	user, err := ac.service.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, email)
		}
		metrics.ObserveAuth("login", false)
		ac.logAuth(c, 0, "login_failed", false)

		switch {
		case errors.Is(err, ErrAccountLocked):
			renderError(http.StatusUnauthorized, "Account is locked. Please try again later.")
		case errors.Is(err, ErrInvalidCredentials):
			renderError(http.StatusUnauthorized, invalidCredentialMsg)
		default:
			log.Printf("Internal error (login): %v", err)
			renderError(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, email)
	}

	if err := ac.startSession(c, user); err != nil {
		renderError(http.StatusInternalServerError, "Failed to create session")
		return
	}

	metrics.ObserveAuth("login", true)
	ac.logAuth(c, user.ID, "login", true)
	c.Redirect(http.StatusFound, next)
}

// RegisterPage renders the sign-up form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, defaultLandingPath)
		return
	}

	ac.renderTemplate(c, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Error": c.Query("error"),
	})
}

// Register creates a member account and logs it in.
func (ac *AuthController) Register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		in = RegisterInput{
			Name:     c.PostForm("name"),
			Email:    c.PostForm("email"),
			Password: c.PostForm("password"),
		}
	}

	user, err := ac.service.Register(c.Request.Context(), in)
	if err != nil {
		metrics.ObserveAuth("register", false)

		status := http.StatusBadRequest
		errs := validation.Messages(err)
		switch {
		case errors.Is(err, ErrUserExists):
			status = http.StatusConflict
			errs = []string{"An account with this email already exists"}
		case !errors.Is(err, validation.ErrValidationFailed):
			log.Printf("Internal error (register): %v", err)
			status = http.StatusInternalServerError
			errs = []string{"Something went wrong. Please try again."}
		}

		ac.renderTemplate(c, status, "register.html", gin.H{
			"Title":  "Register",
			"Name":   in.Name,
			"Email":  in.Email,
			"Error":  errs[0],
			"Errors": errs,
		})
		return
	}

	metrics.ObserveAuth("register", true)
	ac.logAuth(c, user.ID, "register", true)

	if err := ac.startSession(c, user); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, defaultLandingPath)
}

// Logout destroys the session and returns to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		userID := ac.sessionManager.GetUserID(c.Request)
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			log.Printf("Failed to destroy session: %v", err)
		}
		if userID != 0 {
			ac.logAuth(c, userID, "logout", true)
		}
	}
	c.Redirect(http.StatusFound, "/login")
}

func (ac *AuthController) startSession(c *gin.Context, user *entities.User) error {
	if ac.sessionManager == nil {
		return nil
	}
	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for user %d: %v", user.ID, err)
		return err
	}
	return nil
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditService != nil {
		ac.auditService.LogAuth(audit.RequestOrigin(c, userID), action, success)
	}
}

// renderTemplate renders an auth page, or the same data as JSON when no
// templates are loaded.
func (ac *AuthController) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	data["CSRFField"] = CSRFTokenField(c)
	if ac.templates == nil {
		delete(data, "CSRFField")
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("Internal error (template %s): %v", name, err)
	}
}

// APITokenController issues and revokes API tokens for the caller.
type APITokenController struct {
	service *Service
}

func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken replaces the caller's API token. The plaintext is returned
// once and never stored.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	user, err := RequireAuthenticated(CurrentIdentity(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthenticated"})
		return
	}

	token, err := tc.service.GenerateToken(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("Internal error (generate token): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token", "code": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken clears the caller's API token.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	user, err := RequireAuthenticated(CurrentIdentity(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthenticated"})
		return
	}

	if err := tc.service.RevokeToken(c.Request.Context(), user.ID); err != nil {
		log.Printf("Internal error (revoke token): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token", "code": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
