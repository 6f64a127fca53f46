package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/entities"
)

// Middleware resolves the identity of every request.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware. sessionManager may be
// nil, in which case only Bearer tokens are accepted.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// Handler returns a Gin middleware that stores the caller's identity in the
// context. It never rejects a request.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		SetIdentity(c, m.ResolveIdentity(c))
		c.Next()
	}
}

// ResolveIdentity tries a Bearer token first (API clients), then the session
// cookie (web UI), and falls back to Anonymous.
func (m *Middleware) ResolveIdentity(c *gin.Context) Identity {
	if user := m.tryBearerAuth(c); user != nil {
		return Identity{User: user, Method: MethodBearer}
	}
	if user := m.trySessionAuth(c); user != nil {
		return Identity{User: user, Method: MethodSession}
	}
	return Anonymous
}

// tryBearerAuth attempts to authenticate using Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	token := bearerToken(c)
	if token == "" {
		return nil
	}

	user, err := m.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

// trySessionAuth attempts to authenticate using session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IsAPIRequest determines if this is an API request vs web browser request.
func IsAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.GetHeader("Authorization") != ""
}

// LoginRedirect is the login URL that returns the user to the current page.
func LoginRedirect(c *gin.Context) string {
	return "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// RequireAuth returns a middleware that rejects anonymous callers: API calls
// get 401, browsers are sent to the login page.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := RequireAuthenticated(CurrentIdentity(c)); err != nil {
			if IsAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthenticated"})
			} else {
				c.Redirect(http.StatusFound, LoginRedirect(c))
				c.Abort()
			}
			return
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware that only lets administrators through.
// Anonymous browsers are sent to log in first.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if _, err := RequireAdmin(id); err != nil {
			switch {
			case IsAPIRequest(c):
				status, code := http.StatusForbidden, "forbidden"
				if id.IsAnonymous() {
					status, code = http.StatusUnauthorized, "unauthenticated"
				}
				c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
			case id.IsAnonymous():
				c.Redirect(http.StatusFound, LoginRedirect(c))
				c.Abort()
			default:
				c.Redirect(http.StatusFound, "/books?error="+url.QueryEscape("You do not have permission to access this page."))
				c.Abort()
			}
			return
		}
		c.Next()
	}
}
