package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/configs"
	"github.com/codecollab/codecollab/internal/infrastructure/events"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/messaging"
	"github.com/codecollab/codecollab/internal/infrastructure/metrics"
	"github.com/codecollab/codecollab/internal/infrastructure/presence"
	"github.com/codecollab/codecollab/internal/infrastructure/ratelimiter"
	"github.com/codecollab/codecollab/internal/infrastructure/registry"
	"github.com/codecollab/codecollab/internal/infrastructure/tracing"
	"github.com/codecollab/codecollab/internal/infrastructure/ws"
	"github.com/codecollab/codecollab/internal/persistence/db"
	"github.com/codecollab/codecollab/internal/persistence/repository"
	"github.com/codecollab/codecollab/internal/presentation/api"
	"github.com/codecollab/codecollab/internal/presentation/handler/collab"
	"github.com/codecollab/codecollab/internal/presentation/handler/health"
	"github.com/codecollab/codecollab/internal/presentation/handler/messages"
	"github.com/codecollab/codecollab/internal/presentation/handler/progress"
	"github.com/codecollab/codecollab/internal/presentation/handler/rooms"
)

const (
	serviceName = "codecollab-api"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	progressRepository, cleanup, err := newProgressRepository(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	m := metrics.New()

	tracker := presence.NewTracker(cfg.Presence.SweepInterval, cfg.Presence.Staleness)
	defer tracker.Close()

	roomRegistry := registry.New()
	hub := ws.NewHub(m, logger)
	router := ws.NewRouter(hub, progressRepository, tracker, m, logger)

	var roomPublisher ws.RoomEventPublisher
	if cfg.Messaging.AmqpURI != "" {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.AmqpURI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		roomPublisher = events.NewRoomPublisher(rabbitmq)

		roomConsumer := events.NewRoomConsumer(rabbitmq, logger)
		if err := roomConsumer.Listen(); err != nil {
			log.Fatal(err)
		}
	}

	gateway := ws.NewGateway(roomRegistry, hub, router, progressRepository, tracker, roomPublisher, m, logger)

	collabHandler := collab.NewHandler(gateway, logger, cfg.HTTP.AllowedOrigins)
	progressHandler := progress.NewHandler(progressRepository)
	roomsHandler := rooms.NewHandler(roomRegistry, tracker)
	messagesHandler := messages.NewHandler(hub)
	healthHandler := health.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(
		cfg,
		collabHandler,
		progressHandler,
		roomsHandler,
		messagesHandler,
		healthHandler,
		m.Registry,
		logger,
		rateLimiter,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		log.Fatal(err)
	}
}

// newProgressRepository selects the progress store backend. The "memory"
// driver keeps records in process and suits local development; anything else
// connects to MongoDB and is fatal on failure.
func newProgressRepository(ctx context.Context, cfg *configs.Config) (domain.ProgressRepository, func(), error) {
	if cfg.Store.Driver == "memory" {
		return repository.NewMemoryProgressRepository(), func() {}, nil
	}

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Store.URI,
		Database:          cfg.Store.Database,
		ConnectionTimeout: cfg.Store.ConnectionTimeout,
	}

	client, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		return nil, nil, err
	}

	database := db.GetDatabase(client, mongoCfg)
	if err := repository.EnsureProgressIndexes(ctx, database); err != nil {
		_ = db.DisconnectMongo(context.Background(), client)
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.DisconnectMongo(context.Background(), client)
	}

	return repository.NewProgressRepository(database), cleanup, nil
}
