package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/hub"
	"github.com/DoyleJ11/grid-tactics-backend/internal/metrics"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
	"github.com/DoyleJ11/grid-tactics-backend/internal/ws"
)

type Deps struct {
	Hub    *hub.Hub
	Maps   store.MapSource
	Server config.ServerConfig
	Rate   config.RateConfig
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	// Public routes
	r.Post("/rooms", CreateRoom(d.Hub, d.Maps, log))
	r.Get("/rooms/{code}", GetRoom(d.Hub))
	r.Get("/maps", ListMaps(d.Maps, log))
	r.Get("/healthz", Healthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{
		AllowedOrigins: d.Server.AllowedOrigins,
		Rate:           d.Rate,
		Logger:         log,
	}))
	return r
}

// requestLogger logs each request and records its latency under the chi route pattern,
// which keeps the metric labels bounded.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveRequest(r.Method, route, elapsed.Seconds())
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
