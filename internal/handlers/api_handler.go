package handlers

import (
	"net/http"

	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/internal/services"
	"github.com/gin-gonic/gin"
)

// APIHandler serves the JSON API for script clients sharing the cookie session
type APIHandler struct {
	generator services.GeneratorServiceInterface
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(generator services.GeneratorServiceInterface) *APIHandler {
	return &APIHandler{
		generator: generator,
	}
}

// Session handles GET /api/v1/session
func (h *APIHandler) Session(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

// CreateLessonPlan handles POST /api/v1/lesson-plans
func (h *APIHandler) CreateLessonPlan(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req models.GenerateForm
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, http.StatusBadRequest, err)
		return
	}

	plan, err := h.generator.Generate(c.Request.Context(), session, req.Topic)
	if err != nil {
		respondError(c, generationStatus(err), services.GenerationMessage(err), err)
		return
	}

	c.JSON(http.StatusOK, models.LessonPlanResponse{
		Plan: models.NewLessonPlanJSON(models.NewLessonPlanView(plan)),
	})
}
