package handlers

import (
	"net/http"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/middleware"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AIHandler проксирует генерацию изображений и сохраняет результат в галерею.
type AIHandler struct {
	Gallery  Gallery
	AI       AI
	Logger   *zap.SugaredLogger
	Validate *validator.Validate
}

// NewAIHandler создаёт хендлер AI. Без адреса функций генерация отвечает 503.
func NewAIHandler(g Gallery, ai AI, logger *zap.SugaredLogger, v *validator.Validate) *AIHandler {
	return &AIHandler{Gallery: g, AI: ai, Logger: logger, Validate: v}
}

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=500"`
}

type editRequest struct {
	ImageData string `json:"imageData" validate:"required,startswith=data:"`
	Prompt    string `json:"prompt" validate:"required,max=500"`
}

type enhanceRequest struct {
	ImageData string `json:"imageData" validate:"required,startswith=data:"`
	DeviceID  string `json:"deviceId" validate:"omitempty,max=128"`
}

type saveRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
	Category string `json:"category" validate:"required"`
}

func (h *AIHandler) configured(w http.ResponseWriter) bool {
	if h.AI == nil || !h.AI.Configured() {
		writeError(w, h.Logger, aiclient.ErrNotConfigured)
		return false
	}
	return true
}

// Generate POST /api/ai/generate
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	res, err := h.AI.Generate(r.Context(), middleware.GetTokenFromContext(r.Context()), req.Prompt)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Edit POST /api/ai/edit — правка изображения (data URL) по промпту.
func (h *AIHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var req editRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	res, err := h.AI.Edit(r.Context(), middleware.GetTokenFromContext(r.Context()), req.ImageData, req.Prompt)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Enhance POST /api/ai/enhance
func (h *AIHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var req enhanceRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	res, err := h.AI.Enhance(r.Context(), middleware.GetTokenFromContext(r.Context()), req.ImageData, req.DeviceID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Save POST /api/ai/save — скачивает сгенерированное изображение и сохраняет его.
func (h *AIHandler) Save(w http.ResponseWriter, r *http.Request) {
	if h.AI == nil {
		writeError(w, h.Logger, aiclient.ErrNotConfigured)
		return
	}
	var req saveRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	rec, err := h.Gallery.ImportFromURL(r.Context(), h.AI, req.ImageURL, req.Category)
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
