package handler

import (
	"net/http"

	"github.com/gestorhq/gestor-go/internal/render"
)

// HomeHandler handles the public landing page and the not-found fallback.
type HomeHandler struct {
	renderer *render.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(renderer *render.Renderer) *HomeHandler {
	return &HomeHandler{renderer: renderer}
}

// Home renders the landing page.
// GET /
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "home", http.StatusOK, render.TemplateData{
		Title: "Gestor de Produtos",
		User:  currentUser(r),
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// NotFound renders the 404 page for unmatched routes.
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderNotFound(w, r, h.renderer)
}
