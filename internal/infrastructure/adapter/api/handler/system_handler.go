package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// SystemHandler serves health and static reference endpoints
type SystemHandler struct {
	ping func() error
}

// NewSystemHandler creates a new system handler. The ping function checks
// backing-store liveness; a nil ping reports healthy unconditionally.
func NewSystemHandler(ping func() error) *SystemHandler {
	return &SystemHandler{ping: ping}
}

// Healthz handles the GET /healthz endpoint
func (h *SystemHandler) Healthz(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Currencies handles the GET /currencies endpoint
func (h *SystemHandler) Currencies(c *gin.Context) {
	c.JSON(http.StatusOK, entity.Currencies)
}

// Kinds handles the GET /kinds endpoint
func (h *SystemHandler) Kinds(c *gin.Context) {
	c.JSON(http.StatusOK, entity.Kinds())
}
