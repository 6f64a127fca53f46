package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/entities"
)

// AccountService is what the profile page needs from auth.Service.
type AccountService interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	GenerateToken(ctx context.Context, userID uint) (string, error)
	RevokeToken(ctx context.Context, userID uint) error
}

var _ AccountService = (*auth.Service)(nil)

// ProfileController handles the signed-in user's profile page.
type ProfileController struct {
	accounts AccountService
}

func NewProfileController(accounts AccountService) *ProfileController {
	return &ProfileController{accounts: accounts}
}

// ProfilePage handles GET /profile
func (pc *ProfileController) ProfilePage(c *gin.Context) {
	user, ok := pc.requireUser(c)
	if !ok {
		return
	}
	pc.render(c, http.StatusOK, user, "")
}

func (pc *ProfileController) render(c *gin.Context, status int, user *entities.User, token string) {
	c.HTML(status, "profile", pageData(c, gin.H{
		"Account":  user,
		"HasToken": user.TokenHash != "",
		"Token":    token,
	}))
}

// ChangePassword handles POST /profile/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	user, ok := pc.requireUser(c)
	if !ok {
		return
	}

	currentPassword := c.PostForm("current_password")
	newPassword := c.PostForm("new_password")
	if newPassword != c.PostForm("confirm_password") {
		c.Redirect(http.StatusSeeOther, withQuery("/profile", "error", "New passwords do not match."))
		return
	}

	err := pc.accounts.ChangePassword(c.Request.Context(), user.ID, currentPassword, newPassword)
	switch {
	case err == nil:
		redirectWithMessage(c, "/profile", "Password changed.")
	case errors.Is(err, auth.ErrInvalidPassword):
		c.Redirect(http.StatusSeeOther, withQuery("/profile", "error", "Current password is incorrect."))
	default:
		redirectWithError(c, err, "/profile", "change password")
	}
}

// GenerateToken handles POST /profile/token. The new token is shown once.
func (pc *ProfileController) GenerateToken(c *gin.Context) {
	user, ok := pc.requireUser(c)
	if !ok {
		return
	}

	token, err := pc.accounts.GenerateToken(c.Request.Context(), user.ID)
	if err != nil {
		redirectWithError(c, err, "/profile", "generate token")
		return
	}

	// Reload so HasToken reflects the new token.
	if fresh, err := pc.accounts.GetUserByID(c.Request.Context(), user.ID); err == nil {
		user = fresh
	}
	pc.render(c, http.StatusOK, user, token)
}

// RevokeToken handles POST /profile/token/revoke
func (pc *ProfileController) RevokeToken(c *gin.Context) {
	user, ok := pc.requireUser(c)
	if !ok {
		return
	}

	if err := pc.accounts.RevokeToken(c.Request.Context(), user.ID); err != nil {
		redirectWithError(c, err, "/profile", "revoke token")
		return
	}
	redirectWithMessage(c, "/profile", "API token revoked.")
}

func (pc *ProfileController) requireUser(c *gin.Context) (*entities.User, bool) {
	user, err := auth.RequireAuthenticated(auth.CurrentIdentity(c))
	if err != nil {
		redirectWithError(c, err, "/books", "profile")
		return nil, false
	}
	return user, true
}
