// Package auth resolves who is making a request and decides what they may do.
//
// Identity comes from a Bearer token (API clients) or the session cookie
// (web UI). Resolution never blocks a request: an unknown caller simply gets
// the Anonymous identity, and handlers call RequireAuthenticated or
// RequireAdmin before doing anything that needs more.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_TOKEN_EXPIRY=720h              # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(sessionManager.SessionLoadSave(), authMiddleware.Handler())
//
// In handlers:
//
//	user, err := auth.RequireAuthenticated(auth.CurrentIdentity(c))
package auth
