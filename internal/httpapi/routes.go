package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/DoyleJ11/kraken-backend/internal/hub"
	"github.com/DoyleJ11/kraken-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Logger *zap.Logger
	Rules  engine.Rules
	WS     ws.Options
}

func SetupRoutes(h *hub.Hub, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WS.Logger == nil {
		opts.WS.Logger = opts.Logger
	}
	if opts.WS.Rules == (engine.Rules{}) {
		opts.WS.Rules = opts.Rules
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(opts.Logger))

	// Public routes
	r.Post("/lobbies", CreateLobby(h, opts.Rules, opts.Logger))
	r.Get("/lobbies", ListLobbies(h))
	r.Get("/lobbies/{code}", GetLobby(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, opts.WS))
	return r
}

// accessLog logs one line per request. Upgraded websockets are long lived and only
// logged when the upgrade fails.
func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if r.URL.Path == "/ws" && (status == 0 || status == http.StatusSwitchingProtocols) {
				return
			}
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
