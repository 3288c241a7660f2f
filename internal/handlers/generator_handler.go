package handlers

import (
	"errors"
	"net/http"

	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/models"
	"github.com/escribo/planos-web/internal/services"
	"github.com/gin-gonic/gin"
)

const generatorTemplate = "gerador.html"

// GeneratorHandler serves the lesson plan generator page
type GeneratorHandler struct {
	service services.GeneratorServiceInterface
}

// NewGeneratorHandler creates a new GeneratorHandler
func NewGeneratorHandler(service services.GeneratorServiceInterface) *GeneratorHandler {
	return &GeneratorHandler{
		service: service,
	}
}

// Page handles GET /gerador; the session guard runs before it
func (h *GeneratorHandler) Page(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		attachError(c, err)
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	c.HTML(http.StatusOK, generatorTemplate, models.GeneratorPage{
		Title: "Gerador",
		View:  models.NewGeneratorView(session.UserID, session.Email),
	})
}

// Submit handles POST /gerador. The session may be absent here; the service
// refuses to call the endpoint without one.
func (h *GeneratorHandler) Submit(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	view := models.NewGeneratorView("", "")
	if session != nil {
		view = models.NewGeneratorView(session.UserID, session.Email)
	}
	view.Begin(c.PostForm("topic"))

	plan, err := h.service.Generate(c.Request.Context(), session, view.Topic)
	if err != nil {
		attachError(c, err)
		view.Fail(services.GenerationMessage(err))
		c.HTML(generationStatus(err), generatorTemplate, models.GeneratorPage{Title: "Gerador", View: view})
		return
	}

	view.Succeed(plan)
	c.HTML(http.StatusOK, generatorTemplate, models.GeneratorPage{Title: "Gerador", View: view})
}

// RateLimited renders the generator page for a throttled POST /gerador. The
// submitted topic stays in the form.
func (h *GeneratorHandler) RateLimited(c *gin.Context) {
	view := models.NewGeneratorView("", "")
	if session := middleware.ReadSession(c); session != nil {
		view = models.NewGeneratorView(session.UserID, session.Email)
	}
	view.Begin(c.PostForm("topic"))
	view.Fail(middleware.MsgTooManyRequests)
	c.HTML(http.StatusTooManyRequests, generatorTemplate, models.GeneratorPage{Title: "Gerador", View: view})
}

// generationStatus maps a Generate error to an HTTP status
func generationStatus(err error) int {
	var genErr *services.GenerationError
	if !errors.As(err, &genErr) {
		return http.StatusInternalServerError
	}

	switch genErr.Kind {
	case services.KindNoSession:
		return http.StatusUnauthorized
	case services.KindInFlight:
		return http.StatusTooManyRequests
	case services.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
