package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// staticRoutes are paths recorded verbatim.
var staticRoutes = map[string]bool{
	"/":                        true,
	"/health":                  true,
	"/ready":                   true,
	"/metrics":                 true,
	"/scenes/home-timeline":    true,
	"/scenes/astropix-summary": true,
}

// sceneSubresources are the fixed trailing segments under /scene/{id}/.
var sceneSubresources = map[string]bool{
	"permissions":   true,
	"place.wtml":    true,
	"click":         true,
	"impressions":   true,
	"likes":         true,
	"nearby-global": true,
}

// normalizePath maps request paths to route patterns so metric label
// cardinality stays bounded.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	parts := strings.Split(path, "/")

	if strings.HasPrefix(path, "/scene/") {
		switch {
		case len(parts) == 3 && parts[2] != "":
			return "/scene/{id}"
		case len(parts) == 4 && sceneSubresources[parts[3]]:
			return "/scene/{id}/" + parts[3]
		case len(parts) == 5 && parts[3] == "shares":
			return "/scene/{id}/shares/{type}"
		}
	}
	if strings.HasPrefix(path, "/handle/") {
		switch {
		case len(parts) == 4 && parts[3] == "scene":
			return "/handle/{handle}/scene"
		case len(parts) == 4 && parts[3] == "sceneinfo":
			return "/handle/{handle}/sceneinfo"
		case len(parts) == 3 && parts[2] != "":
			return "/handle/{handle}"
		}
	}
	return "/other"
}

// HTTPMetrics holds the request-level Prometheus collectors.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates unregistered HTTP metrics collectors.
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request duration in seconds by method and route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "route"},
		),
	}
}

// Register registers the collectors with the given registry.
func (m *HTTPMetrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.requestsTotal); err != nil {
		return err
	}
	return reg.Register(m.requestDuration)
}

// Middleware records request totals and duration for every request.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := normalizePath(r.URL.Path)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
