package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CategoryHandler обслуживает категории и операции над галереей целиком.
type CategoryHandler struct {
	Gallery  Gallery
	Logger   *zap.SugaredLogger
	Validate *validator.Validate
}

// NewCategoryHandler создаёт хендлер категорий
func NewCategoryHandler(g Gallery, logger *zap.SugaredLogger, v *validator.Validate) *CategoryHandler {
	return &CategoryHandler{Gallery: g, Logger: logger, Validate: v}
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type recountResponse struct {
	Counts  map[string]int `json:"counts"`
	Orphans int            `json:"orphans"`
}

// List GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Gallery.ListCategories(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	c, err := h.Gallery.CreateCategory(r.Context(), req.Name)
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Delete DELETE /api/categories/{id} — записи категории остаются.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Gallery.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recount POST /api/categories/recount
func (h *CategoryHandler) Recount(w http.ResponseWriter, r *http.Request) {
	tally, err := h.Gallery.RecomputeCounts(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recountResponse{Counts: tally.Counts, Orphans: tally.Orphans})
}

// Stats GET /api/stats
func (h *CategoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Gallery.Stats(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Wipe DELETE /api/data — удаляет всё. Подтверждение — забота клиента.
func (h *CategoryHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.Gallery.WipeAll(r.Context()); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.Logger.Infow("gallery data wiped via api")
	w.WriteHeader(http.StatusNoContent)
}
