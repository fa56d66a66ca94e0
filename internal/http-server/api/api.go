package api

import (
	"context"
	"errors"
	"fmt"
	"invitetrack/internal/config"
	handlerrs "invitetrack/internal/http-server/handlers/errors"
	"invitetrack/internal/http-server/handlers/user"
	"invitetrack/internal/http-server/middleware/logger"
	"invitetrack/internal/http-server/middleware/timeout"
	"invitetrack/lib/api/response"
	"invitetrack/lib/sl"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	user.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port),
		Handler:      Router(conf, log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Router builds the read-only query api.
func Router(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.New(log))
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(handlerrs.NotFound(log))
	router.MethodNotAllowed(handlerrs.NotAllowed(log))

	// same lookup under the /api prefix used by browser clients
	router.Get("/user/{userId}", user.Get(log, handler))
	router.Get("/api/user/{userId}", user.Get(log, handler))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(nil))
	})
	router.Handle("/metrics", promhttp.Handler())

	origins := conf.Api.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler(router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("starting api server", slog.String("address", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("stopping api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
