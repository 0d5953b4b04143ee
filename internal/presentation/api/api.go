package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/codecollab/codecollab/internal/infrastructure/configs"
	"github.com/codecollab/codecollab/internal/infrastructure/json"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/ratelimiter"
	collabHandler "github.com/codecollab/codecollab/internal/presentation/handler/collab"
	healthHandler "github.com/codecollab/codecollab/internal/presentation/handler/health"
	messagesHandler "github.com/codecollab/codecollab/internal/presentation/handler/messages"
	progressHandler "github.com/codecollab/codecollab/internal/presentation/handler/progress"
	roomsHandler "github.com/codecollab/codecollab/internal/presentation/handler/rooms"
)

type Application struct {
	config          *configs.Config
	collabHandler   *collabHandler.Handler
	progressHandler *progressHandler.Handler
	roomsHandler    *roomsHandler.Handler
	messagesHandler *messagesHandler.Handler
	healthHandler   *healthHandler.Handler
	registry        *prometheus.Registry
	logger          logging.Logger
	ratelimiter     *ratelimiter.FixedWindowRateLimiter
}

func NewApplication(
	config *configs.Config,
	collab *collabHandler.Handler,
	progress *progressHandler.Handler,
	rooms *roomsHandler.Handler,
	messages *messagesHandler.Handler,
	health *healthHandler.Handler,
	registry *prometheus.Registry,
	logger logging.Logger,
	limiter *ratelimiter.FixedWindowRateLimiter,
) *Application {
	return &Application{
		config:          config,
		collabHandler:   collab,
		progressHandler: progress,
		roomsHandler:    rooms,
		messagesHandler: messages,
		healthHandler:   health,
		registry:        registry,
		logger:          logger,
		ratelimiter:     limiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.loggerMiddleware)
	r.Use(app.enableCors)

	// The websocket endpoint is exempt from the request timeout and the
	// rate limiter: connections are long-lived and event frames are not
	// HTTP requests.
	r.Get("/ws", app.collabHandler.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(app.rateLimiterMiddleware)

		r.Get("/", app.rootHandler)

		r.Route("/progress", func(r chi.Router) {
			r.Post("/save", app.progressHandler.SaveProgressHandler)
			r.Get("/{roomId}/{userName}", app.progressHandler.GetProgressHandler)
		})

		r.Route("/api", func(r chi.Router) {
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/{roomId}/members", app.roomsHandler.GetRoomMembersHandler)
				r.Get("/{roomId}/presence", app.roomsHandler.GetRoomPresenceHandler)
				r.Get("/{roomId}/messages", app.messagesHandler.GetTranscriptHandler)
			})

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetHealth)
			r.Get("/live", app.healthHandler.GetHealth)
		})

		r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	})

	return otelhttp.NewHandler(r, "codecollab-http")
}

func (app *Application) rootHandler(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, map[string]string{
		"message": "Server is running",
	})
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		healthHandler.SetHealthy(false)

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
