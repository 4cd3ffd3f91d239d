package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/config"
	"MemoGallery/internal/middleware"
	"MemoGallery/internal/model"
	"MemoGallery/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Gallery — операции хранилища, которые нужны HTTP-слою.
type Gallery interface {
	SaveProbed(ctx context.Context, id, category string, payload []byte, width, height int, duration *float64) (model.MediaRecord, error)
	Get(ctx context.Context, id string) (model.MediaRecord, bool, error)
	List(ctx context.Context) ([]model.MediaRecord, error)
	ListByCategory(ctx context.Context, category string) ([]model.MediaRecord, error)
	DeleteOne(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (service.BatchResult, error)
	SetFavorite(ctx context.Context, id string, value bool) error
	ToggleFavorite(ctx context.Context, id string) (bool, bool, error)
	Export(ctx context.Context, ids []string) ([]model.MediaRecord, error)
	CreateCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	RecomputeCounts(ctx context.Context) (service.Tally, error)
	WipeAll(ctx context.Context) error
	Stats(ctx context.Context) (service.Stats, error)
	ImportFromURL(ctx context.Context, f service.ImageFetcher, url, category string) (model.MediaRecord, error)
}

var _ Gallery = (*service.Gallery)(nil)

// AI — клиент удалённых функций генерации.
type AI interface {
	service.ImageFetcher
	Configured() bool
	Generate(ctx context.Context, token, prompt string) (*aiclient.GenerateResult, error)
	Edit(ctx context.Context, token, imageData, prompt string) (*aiclient.EditResult, error)
	Enhance(ctx context.Context, token, imageData, deviceID string) (*aiclient.EnhanceResult, error)
}

var _ AI = (*aiclient.Client)(nil)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	gallery Gallery,
	ai AI,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition", staleHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithMetrics)
	r.Use(middleware.WithAuth(cfg.AuthSecret))

	v := validator.New()
	media := NewMediaHandler(gallery, logger, cfg, v)
	cats := NewCategoryHandler(gallery, logger, v)
	aiH := NewAIHandler(gallery, ai, logger, v)

	r.Get("/health", health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.AuthSecret))

		// Media
		r.Get("/media", media.List)
		r.Post("/media", media.Upload)
		r.Post("/media/batch-delete", media.BatchDelete)
		r.Post("/media/export", media.Export)
		r.Get("/media/{id}", media.Get)
		r.Get("/media/{id}/payload", media.Payload)
		r.Get("/media/{id}/thumbnail", media.Thumbnail)
		r.Put("/media/{id}/favorite", media.SetFavorite)
		r.Post("/media/{id}/favorite/toggle", media.ToggleFavorite)
		r.Delete("/media/{id}", media.Delete)

		// Categories
		r.Get("/categories", cats.List)
		r.Post("/categories", cats.Create)
		r.Post("/categories/recount", cats.Recount)
		r.Delete("/categories/{id}", cats.Delete)

		r.Get("/stats", cats.Stats)
		r.Delete("/data", cats.Wipe)

		// AI
		r.Post("/ai/generate", aiH.Generate)
		r.Post("/ai/edit", aiH.Edit)
		r.Post("/ai/enhance", aiH.Enhance)
		r.Post("/ai/save", aiH.Save)
	})

	return &Handler{Router: r}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now()})
}

// writeJSON кодирует v до отправки заголовков: ошибка кодирования превращается в 500,
// а не в 200 с пустым телом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
