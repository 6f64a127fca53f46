package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/demo"
)

// DemoController reports whether the instance is a read-only demo.
type DemoController struct {
	middleware *demo.Middleware
}

func NewDemoController(middleware *demo.Middleware) *DemoController {
	return &DemoController{middleware: middleware}
}

// DemoStatusResponse contains demo mode status information.
type DemoStatusResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// GetStatus handles GET /api/demo/status
func (dc *DemoController) GetStatus(c *gin.Context) {
	if !dc.middleware.IsEnabled() {
		c.JSON(http.StatusOK, DemoStatusResponse{
			Enabled: false,
			Message: "Demo mode is not active",
		})
		return
	}

	c.JSON(http.StatusOK, DemoStatusResponse{
		Enabled: true,
		Message: "Demo mode is active: loans and catalog changes are blocked",
	})
}
