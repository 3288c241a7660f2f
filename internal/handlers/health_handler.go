package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	providerReachable func() bool
}

func NewHealthHandler(providerReachable func() bool) *HealthHandler {
	return &HealthHandler{
		providerReachable: providerReachable,
	}
}

// Healthcheck reports liveness. An unreachable auth provider degrades the
// report but does not fail it; pages keep rendering and log the failures.
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	provider := "ok"
	if h.providerReachable != nil && !h.providerReachable() {
		provider = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"auth_provider": provider,
	})
}
