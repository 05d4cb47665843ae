package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skylight-social/skylight/internal/health"
)

// Version is the service version reported by the banner endpoint.
const Version = "1.0.0"

// Handlers bundles every handler group mounted by NewRouter.
type Handlers struct {
	Scenes       *SceneHandlers
	Interactions *InteractionHandlers
	Timelines    *TimelineHandlers
	Handles      *HandleHandlers
	WTML         *WTMLHandlers
	Nearby       *NearbyHandlers
}

// healthCheckTimeout bounds every dependency probe on /ready.
const healthCheckTimeout = 3 * time.Second

// NewRouter mounts all routes on a fresh ServeMux. Readiness checkers are
// probed on /ready; /health only reports that the process is serving.
func NewRouter(h Handlers, registry *prometheus.Registry, checkers map[string]health.Checker) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		for name, checker := range checkers {
			if err := checker.HealthCheck(ctx); err != nil {
				slog.Error("readiness check failed", "dependency", name, "error", err)
				WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeInternal,
					name+" is unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready"}`)); err != nil {
			slog.Error("failed to write ready response", "error", err)
		}
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Scene lifecycle
	mux.HandleFunc("POST /handle/{handle}/scene", h.Scenes.CreateScene)
	mux.HandleFunc("GET /scene/{id}", h.Scenes.GetScene)
	mux.HandleFunc("PATCH /scene/{id}", h.Scenes.UpdateScene)
	mux.HandleFunc("GET /scene/{id}/permissions", h.Scenes.GetPermissions)

	// Interactions
	mux.HandleFunc("POST /scene/{id}/impressions", h.Interactions.AddImpression)
	mux.HandleFunc("POST /scene/{id}/likes", h.Interactions.AddLike)
	mux.HandleFunc("DELETE /scene/{id}/likes", h.Interactions.RemoveLike)
	mux.HandleFunc("POST /scene/{id}/shares/{type}", h.Interactions.AddShare)
	mux.HandleFunc("GET /scene/{id}/click", h.Interactions.Click)

	// Discovery
	mux.HandleFunc("GET /scenes/home-timeline", h.Timelines.HomeTimeline)
	mux.HandleFunc("GET /scenes/astropix-summary", h.Timelines.AstropixSummary)
	mux.HandleFunc("GET /scene/{id}/nearby-global", h.Nearby.NearbyGlobal)

	// Legacy export
	mux.HandleFunc("GET /scene/{id}/place.wtml", h.WTML.GetPlaceWTML)

	// Dashboard
	mux.HandleFunc("GET /handle/{handle}/sceneinfo", h.Handles.GetSceneInfo)

	// Service banner; everything unmatched 404s here.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := r.Context()
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "the requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"skylight-api","version":"` + Version + `"}`)); err != nil {
			slog.Error("failed to write banner response", "error", err)
		}
	})

	return mux
}
