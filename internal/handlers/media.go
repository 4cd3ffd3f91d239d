package handlers

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"MemoGallery/internal/archive"
	"MemoGallery/internal/config"
	"MemoGallery/internal/mediaprobe"
	"MemoGallery/internal/model"
	"MemoGallery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// запас на поля multipart сверх лимита файла
const multipartOverhead = 1 << 20

// MediaHandler обслуживает записи галереи.
type MediaHandler struct {
	Gallery  Gallery
	Logger   *zap.SugaredLogger
	Config   *config.Config
	Validate *validator.Validate
}

// NewMediaHandler создаёт хендлер media
func NewMediaHandler(g Gallery, logger *zap.SugaredLogger, cfg *config.Config, v *validator.Validate) *MediaHandler {
	return &MediaHandler{Gallery: g, Logger: logger, Config: cfg, Validate: v}
}

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

type favoriteResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

type batchDeleteResponse struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
	Partial bool     `json:"partial"`
}

// ETag — первые 128 бит blake2b-256 содержимого в hex.
func ETag(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// List GET /api/media?category=&q=
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []model.MediaRecord
		err  error
	)
	if c := r.URL.Query().Get("category"); c != "" {
		list, err = h.Gallery.ListByCategory(r.Context(), c)
	} else {
		list, err = h.Gallery.List(r.Context())
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, service.FilterQuery(list, r.URL.Query().Get("q")))
}

func formInt(r *http.Request, key string) (int, error) {
	s := r.FormValue(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, model.Invalid("%s: %v", key, err)
	}
	return n, nil
}

// Upload POST /api/media (multipart: file, category, id?, width?, height?, duration?)
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.Config.BlobMaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.Logger, model.NewStorageError("put", "", model.ErrStorageWrite, model.ErrQuotaExceeded))
			return
		}
		writeError(w, h.Logger, model.Invalid("multipart: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.Logger, model.Invalid("file is required"))
		return
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.Logger, model.Invalid("read file: %v", err))
		return
	}

	width, err := formInt(r, "width")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	height, err := formInt(r, "height")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	var duration *float64
	if s := r.FormValue("duration"); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, h.Logger, model.Invalid("duration: %v", err))
			return
		}
		duration = &d
	}

	rec, err := h.Gallery.SaveProbed(r.Context(), r.FormValue("id"), r.FormValue("category"), payload, width, height, duration)
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *MediaHandler) load(w http.ResponseWriter, r *http.Request) (model.MediaRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, found, err := h.Gallery.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return model.MediaRecord{}, false
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "media not found"})
		return model.MediaRecord{}, false
	}
	return rec, true
}

// Get GET /api/media/{id}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	rec.Payload = nil
	writeJSON(w, http.StatusOK, rec)
}

// Payload GET /api/media/{id}/payload — байты с поддержкой ETag и Range.
func (h *MediaHandler) Payload(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	mime, ext := mediaprobe.Detect(rec.Payload)
	w.Header().Set("Content-Type", mime)
	w.Header().Set("ETag", ETag(rec.Payload))
	w.Header().Set("Cache-Control", "private, no-cache")
	http.ServeContent(w, r, rec.ID+ext, time.UnixMilli(rec.CreatedAt), bytes.NewReader(rec.Payload))
}

// Thumbnail GET /api/media/{id}/thumbnail?w=
func (h *MediaHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	width := mediaprobe.DefaultThumbnailWidth
	if s := r.URL.Query().Get("w"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 4096 {
			writeError(w, h.Logger, model.Invalid("w must be 1..4096"))
			return
		}
		width = n
	}
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	if rec.Kind != model.KindImage {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "thumbnails are only available for images"})
		return
	}
	thumb, err := mediaprobe.Thumbnail(rec.Payload, width)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("ETag", ETag(thumb))
	http.ServeContent(w, r, rec.ID+".jpg", time.UnixMilli(rec.CreatedAt), bytes.NewReader(thumb))
}

// SetFavorite PUT /api/media/{id}/favorite
func (h *MediaHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Gallery.SetFavorite(r.Context(), id, *req.Favorite); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorite: *req.Favorite})
}

// ToggleFavorite POST /api/media/{id}/favorite/toggle
func (h *MediaHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, found, err := h.Gallery.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "media not found"})
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorite: v})
}

// Delete DELETE /api/media/{id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Gallery.DeleteOne(r.Context(), chi.URLParam(r, "id"))
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete POST /api/media/batch-delete
func (h *MediaHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	res, err := h.Gallery.DeleteMany(r.Context(), req.IDs)
	if err = tolerateStale(w, h.Logger, err); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	resp := batchDeleteResponse{Deleted: res.Deleted, Failed: res.FailedIDs(), Partial: res.Partial()}
	if resp.Deleted == nil {
		resp.Deleted = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export POST /api/media/export — одна запись отдаётся как есть, несколько — ZIP.
func (h *MediaHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, h.Validate, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	recs, err := h.Gallery.Export(r.Context(), req.IDs)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	switch len(recs) {
	case 0:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "nothing to export"})
	case 1:
		mime, _ := mediaprobe.Detect(recs[0].Payload)
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archive.EntryName(recs[0])))
		_, _ = w.Write(recs[0].Payload)
	default:
		var buf bytes.Buffer
		n, err := archive.WriteZip(&buf, recs)
		if err != nil {
			writeError(w, h.Logger, err)
			return
		}
		name := fmt.Sprintf("memo-gallery-%d.zip", time.Now().UnixMilli())
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		_, _ = w.Write(buf.Bytes())
		h.Logger.Infow("media exported", "files", n, "size", buf.Len())
	}
}
