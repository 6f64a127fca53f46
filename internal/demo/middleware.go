// Package demo runs the service as a read-only showcase: visitors can browse
// and log in, but nothing they do changes the data.
package demo

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const blockedMessage = "This action is disabled in demo mode"

// ContextKeyDemoMode stores the demo flag for templates.
const ContextKeyDemoMode = "demo_mode"

// Middleware blocks write requests when demo mode is on. Safe methods always
// pass, as do login and logout.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m != nil && m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.IsEnabled() {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		respondBlocked(c)
	}
}

// isAllowedPath lists the only writes a demo visitor may make.
func isAllowedPath(path string) bool {
	switch path {
	case "/login", "/logout":
		return true
	}
	return false
}

func respondBlocked(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     blockedMessage,
			"code":      "demo_mode",
			"demo_mode": true,
		})
		return
	}

	// Send form posts back to the page they came from.
	if referer := c.Request.Referer(); referer != "" {
		if u, err := url.Parse(referer); err == nil && u.Path != "" && !strings.HasPrefix(u.Path, "//") {
			q := u.Query()
			q.Set("error", blockedMessage)
			c.Redirect(http.StatusSeeOther, u.Path+"?"+q.Encode())
			c.Abort()
			return
		}
	}

	c.String(http.StatusForbidden, blockedMessage)
	c.Abort()
}

// InjectContext adds the demo flag to the context for template rendering.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDemoMode, m.IsEnabled())
		c.Next()
	}
}
