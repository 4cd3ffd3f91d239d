package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// staleHeader помечает ответ, после которого счётчики категорий не пересчитались.
const staleHeader = "X-Counts-Stale"

type errorResponse struct {
	Error   string   `json:"error"`
	Credits *int     `json:"credits,omitempty"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func statusOf(err error) int {
	var apiErr *aiclient.APIError
	var vErr validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.As(err, &vErr),
		errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, aiclient.ErrEmptyPrompt),
		errors.Is(err, aiclient.ErrPromptTooLong):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, aiclient.ErrImageFetch):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrStorageUnavailable),
		errors.Is(err, aiclient.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает JSON-ошибкой со статусом по типу err.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}

	var apiErr *aiclient.APIError
	var vErr validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		resp.Error, resp.Credits, resp.Message = apiErr.Message, apiErr.Credits, apiErr.Detail
	case errors.As(err, &vErr):
		resp.Error = "validation failed"
		for _, fe := range vErr {
			resp.Fields = append(resp.Fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Errorw("request failed", "status", status, "error", err)
	} else {
		logger.Debugw("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

// tolerateStale пропускает ErrCountsStale: изменение уже записано, ответ успешный,
// но клиент получает пометку в заголовке.
func tolerateStale(w http.ResponseWriter, logger *zap.SugaredLogger, err error) error {
	if err != nil && errors.Is(err, model.ErrCountsStale) {
		logger.Warnw("mutation applied with stale category counts", "error", err)
		w.Header().Set(staleHeader, "1")
		return nil
	}
	return err
}

// decodeJSON читает тело и прогоняет его через validator.
func decodeJSON(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.Invalid("bad json: %v", err)
	}
	return v.Struct(dst)
}
