package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"MemoGallery/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Тест: метрика пишется с шаблоном маршрута, а не с конкретным путём
func TestWithMetrics_RoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(WithMetrics)
	r.Get("/api/media/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/media/{id}", "404")
	before := testutil.ToFloat64(c)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/media/abc", nil))

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("expected counter %v, got %v", before+1, got)
	}
}
