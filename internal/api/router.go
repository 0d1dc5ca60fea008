package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/HIMANSHU6001/whiteboard/internal/api/middleware"
	"github.com/HIMANSHU6001/whiteboard/internal/config"
	"github.com/HIMANSHU6001/whiteboard/internal/handlers"
	"github.com/HIMANSHU6001/whiteboard/internal/relay"
	"github.com/HIMANSHU6001/whiteboard/internal/store"
)

// NewRouter creates and configures the HTTP router. The relay handler
// owns the websocket message semantics; the router only upgrades and
// hands the socket over.
func NewRouter(logger zerolog.Logger, cfg *config.Config, db store.DataStore, redisStore *store.RedisStore, registry *relay.Registry, msgHandler relay.MessageHandler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // canvas snapshots go over the socket, not HTTP
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting requires redis; without it the limiter is skipped.
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(db, redisStore, registry)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Get("/ws", serveWS(logger, registry, msgHandler, cfg.CORSOrigins))

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/users", h.CreateUser)
		r.Post("/whiteboards", h.CreateWhiteboard)
		r.Get("/whiteboards/{id}", h.GetWhiteboard)
		r.Delete("/whiteboards/{id}", h.DeleteWhiteboard)
		r.Put("/whiteboards/leave/{id}", h.LeaveWhiteboard)
		r.Put("/whiteboards/{id}", h.JoinWhiteboard)
		r.Post("/whiteboards/ishost", h.IsHost)
	})

	return r
}

// serveWS upgrades the connection and starts the read/write pumps. The
// socket carries no credentials; room membership is established by the
// join message, matching the browser clients.
func serveWS(logger zerolog.Logger, registry *relay.Registry, msgHandler relay.MessageHandler, origins []string) http.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin header.
			return allowAll || origin == "" || allowed[origin]
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
			return
		}
		relay.NewConn(uuid.New().String(), ws, registry, msgHandler, logger).Start()
	}
}
