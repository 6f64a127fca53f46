package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/demo"
)

// PageUser is what the layout shows about the caller.
type PageUser struct {
	LoggedIn bool
	Name     string
	Email    string
	IsAdmin  bool
}

func currentPageUser(c *gin.Context) PageUser {
	id := auth.CurrentIdentity(c)
	if id.IsAnonymous() {
		return PageUser{}
	}
	return PageUser{
		LoggedIn: true,
		Name:     id.User.Name,
		Email:    id.User.Email,
		IsAdmin:  id.User.IsAdmin,
	}
}

// pageData adds the layout fields every template expects: the caller, the
// CSRF field, demo mode and any flash message from the query string.
func pageData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	enabled, _ := c.Get(demo.ContextKeyDemoMode)
	demoMode, _ := enabled.(bool)

	data["User"] = currentPageUser(c)
	data["CSRFField"] = auth.CSRFTokenField(c)
	data["DemoMode"] = demoMode
	data["Error"] = c.Query("error")
	data["Message"] = c.Query("message")
	return data
}
