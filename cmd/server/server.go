package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"flowcore-server/services/message-worker/internal/config"
	"flowcore-server/services/message-worker/internal/domain/appointment"
	"flowcore-server/services/message-worker/internal/domain/retry"
	"flowcore-server/services/message-worker/internal/domain/worker"
	"flowcore-server/services/message-worker/internal/infrastructure/calendar"
	"flowcore-server/services/message-worker/internal/infrastructure/channel"
	"flowcore-server/services/message-worker/internal/infrastructure/crontab"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
	"flowcore-server/services/message-worker/internal/infrastructure/llmgateway"
	"flowcore-server/services/message-worker/internal/infrastructure/logger"
	"flowcore-server/services/message-worker/internal/infrastructure/observability"
	"flowcore-server/services/message-worker/internal/infrastructure/persistence"
	"flowcore-server/services/message-worker/internal/infrastructure/queue"
	"flowcore-server/services/message-worker/internal/interfaces/httpserver"
	"flowcore-server/services/message-worker/internal/interfaces/httpserver/handlers"
	"flowcore-server/services/message-worker/internal/utils/httpclients"

	_ "net/http/pprof"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
}

func (application *Application) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		err := http.ListenAndServe("0.0.0.0:6060", nil)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.crontab.Run(ctx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.httpServer.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		panic(err)
	}
}

func buildApplication(cfg *config.Config) (*Application, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log = logger.GetLogger()
		log.Warn().Err(err).Msg("invalid log configuration, using defaults")
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	conversations := persistence.NewConversationRepository(db)
	messages := persistence.NewMessageRepository(db)
	contacts := persistence.NewContactRepository(db)
	agents := persistence.NewAgentRepository(db)
	knowledgeRepo := persistence.NewKnowledgeRepository(db)
	rules := persistence.NewEscalationRulesRepository(db)
	appointments := persistence.NewAppointmentRepository(db)
	interactions := persistence.NewInteractionRepository(db)
	settings := persistence.NewSettingsRepository(db)
	connections := persistence.NewConnectionRepository(db)
	audits := persistence.NewAuditRepository(db)

	queuePolicy := retry.Policy{
		MaxRetries:      cfg.QueueMaxAttempts,
		InitialDelay:    time.Minute,
		BackoffStrategy: retry.BackoffLinear,
	}
	workQueue := queue.NewPostgresQueue(db, queuePolicy, log)

	modelClient := httpclients.NewClient("model-provider")
	modelClient.SetTimeout(cfg.ModelTimeout)
	gateway := llmgateway.NewClient(modelClient, "model-provider", cfg.ModelBaseURL, cfg.ModelAPIKey)

	sender := channel.NewTwilioSender(
		httpclients.NewClient("twilio"),
		cfg.TwilioBaseURL,
		cfg.TwilioSandboxFrom,
		connections,
		log,
	)

	calendarClient := calendar.NewGoogleClient(httpclients.NewClient("calendar"), cfg.CalendarBaseURL, log)
	tools := appointment.NewExecutor(appointments, connections, calendarClient, log)

	modelPolicy := retry.ModelCallPolicy()
	if cfg.ModelMaxRetries > 0 {
		modelPolicy.MaxRetries = cfg.ModelMaxRetries - 1
	}
	if cfg.ModelRetryDelay > 0 {
		modelPolicy.InitialDelay = cfg.ModelRetryDelay
	}

	processor := worker.NewProcessor(worker.ProcessorParams{
		Queue:         workQueue,
		Conversations: conversations,
		Messages:      messages,
		Contacts:      contacts,
		Agents:        agents,
		Knowledge:     knowledgeRepo,
		Rules:         rules,
		Gateway:       gateway,
		Tools:         tools,
		Interactions:  interactions,
		Settings:      settings,
		Sender:        sender,
		Retries:       retry.NewExecutor(modelPolicy),
		DefaultModel:  cfg.ModelName,
		BatchSize:     cfg.QueueBatchSize,
		Logger:        log,
	})

	ingestor := worker.NewIngestor(worker.IngestorParams{
		Queue:         workQueue,
		Conversations: conversations,
		Messages:      messages,
		Contacts:      contacts,
		Connections:   connections,
		MaxAttempts:   cfg.QueueMaxAttempts,
		Logger:        log,
	})

	webhookHandler := handlers.NewWebhookHandler(ingestor, connections, audits, log)
	workerHandler := handlers.NewWorkerHandler(processor, workQueue, log)

	return &Application{
		httpServer: httpserver.NewHttpServer(webhookHandler, workerHandler, cfg, log),
		crontab:    crontab.NewCrontab(processor),
	}, nil
}

func main() {
	ctx := context.Background()
	log := logger.GetLogger()

	// Missing .env is fine; containers inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	application, err := buildApplication(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build application")
	}

	application.Start()
}
