package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	bookingapp "geargrab/internal/app/handlers/booking"
	"geargrab/internal/app/middleware"
	"geargrab/internal/app/outbox"
	"geargrab/internal/app/policies"
	"geargrab/internal/app/schedule"
	bookingsvc "geargrab/internal/app/services/booking"
	"geargrab/internal/app/services/notifications"
	domainauth "geargrab/internal/domain/auth"
	domainbooking "geargrab/internal/domain/booking"
	"geargrab/internal/domain/jobs"
	domainlistings "geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
	domainuser "geargrab/internal/domain/user"
	"geargrab/internal/infra/auth"
	"geargrab/internal/infra/broker/kafka"
	"geargrab/internal/infra/config"
	mongodb "geargrab/internal/infra/db/mongo"
	ginserver "geargrab/internal/infra/http/gin"
	"geargrab/internal/infra/inbox"
	"geargrab/internal/infra/notify"
	"geargrab/internal/infra/obs"
	infraoutbox "geargrab/internal/infra/outbox"
	"geargrab/internal/infra/payments/stripepay"
	"geargrab/internal/infra/scheduler"
	"geargrab/internal/infra/storage/memory"
	"geargrab/internal/infra/validation"
)

const inboxConsumer = "booking-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if err := loadFixtures(ctx, cfg.FixturesPath, cfg.Currency, app.stores, logger); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
	app.background.Start()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageBackend, "inbox", cfg.InboxBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// stores groups the persistence ports for one backend.
type stores struct {
	bookings    domainbooking.Repository
	listings    listingStore
	users       userStore
	jobs        jobs.Store
	idempotency middleware.IdempotencyStore
	outbox      outbox.Outbox
	queue       infraoutbox.Queue
}

type listingStore interface {
	domainlistings.Repository
	Save(ctx context.Context, l *domainlistings.Listing) error
}

type userStore interface {
	domainuser.Directory
	Save(ctx context.Context, u *domainuser.User) error
}

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	stores     stores
	background *scheduler.Background
	closers    []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	if a.background != nil {
		if err := a.background.Shutdown(); err != nil {
			logger.Error("scheduler shutdown failed", "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Error("close failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}}}

	var mongoClient *mongodb.Client
	switch cfg.StorageBackend {
	case config.StorageMongo:
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		if err := client.EnsureIndexes(ctx, cfg.IdempotencyTTL); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("outbox: %w", err)
		}
		app.health.Checks["mongo"] = client.Ping
		app.stores = stores{
			bookings:    mongodb.NewBookingRepository(client.DB),
			listings:    mongodb.NewListingRepository(client.DB),
			users:       mongodb.NewUserDirectory(client.DB),
			jobs:        mongodb.NewJobStore(client.DB),
			idempotency: mongodb.NewIdempotencyStore(client.DB),
			outbox:      box,
			queue:       box,
		}
		mongoClient = client
	default:
		box := memory.NewOutbox()
		idem := memory.NewIdempotencyStore()
		idem.TTL = cfg.IdempotencyTTL
		app.stores = stores{
			bookings:    memory.NewBookingRepository(),
			listings:    memory.NewListingRepository(),
			users:       memory.NewUserDirectory(),
			jobs:        memory.NewJobStore(),
			idempotency: idem,
			outbox:      box,
			queue:       box,
		}
	}

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		return nil, err
	}
	sender, err := buildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	templates, err := notifications.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	notifier := &notifications.Dispatcher{
		Bookings:  app.stores.bookings,
		Listings:  app.stores.listings,
		Users:     app.stores.users,
		Sender:    sender,
		Templates: templates,
		BaseURL:   cfg.BaseURL,
		Logger:    logger.With("component", "notifications"),
	}
	asyncNotifier := notifications.NewAsyncNotifier(notifier, 0, 0)
	app.closers = append(app.closers, asyncNotifier.Close)

	svc := &bookingsvc.Service{
		Bookings:            app.stores.bookings,
		Listings:            app.stores.listings,
		Gateway:             gateway,
		Notifier:            asyncNotifier,
		Scheduler:           schedule.StoreScheduler{Store: app.stores.jobs},
		Outbox:              app.stores.outbox,
		Encoder:             outbox.JSONEventEncoder{},
		Pricing:             domainpricing.NewCalculator(cfg.ServiceFeeBps),
		DepositReleaseDelay: cfg.DepositReleaseDelay,
		Logger:              logger.With("component", "booking"),
	}
	cmdBus, queryBus := bookingapp.NewBuses(svc, bookingapp.BusConfig{
		Logger:      logger,
		Validator:   validation.New(),
		Idempotency: app.stores.idempotency,
		Outbox:      app.stores.outbox,
	})

	verifier, err := buildVerifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	webhookInbox, err := buildInbox(ctx, cfg, mongoClient, app)
	if err != nil {
		return nil, err
	}
	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
		Webhook: ginserver.WebhookHandler{
			Commands: cmdBus,
			Inbox:    webhookInbox,
			Secret:   cfg.StripeWebhookSecret,
			Logger:   logger.With("component", "webhook"),
		},
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: verifier, Logger: logger}.Handle,
	}

	producer, err := buildProducer(cfg, logger, app)
	if err != nil {
		return nil, err
	}
	runner := &schedule.Runner{
		Store: app.stores.jobs,
		Handlers: map[jobs.Kind]schedule.JobHandler{
			jobs.KindReleaseDeposit: func(ctx context.Context, job jobs.Job) error {
				_, err := cmdBus.Dispatch(ctx, bookingapp.ReleaseDepositCommand{BookingID: job.BookingID})
				return err
			},
		},
		Logger: logger.With("component", "jobs"),
	}
	worker := &infraoutbox.Worker{
		Queue:       app.stores.queue,
		Producer:    producer,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	app.background, err = scheduler.New(ctx, logger,
		scheduler.Task{Name: "release-deposits", Interval: cfg.JobSweepInterval, Run: runner.Sweep},
		scheduler.Task{Name: "outbox-relay", Interval: cfg.OutboxPollInterval, Run: worker.Drain},
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return app, nil
}

func buildGateway(cfg config.Config, logger *slog.Logger) (policies.PaymentGateway, error) {
	if cfg.PaymentGatewayMock {
		logger.Warn("payment gateway mock enabled")
		return stripepay.NewMockGateway(logger.With("component", "payments")), nil
	}
	return stripepay.NewGateway(cfg.StripeSecretKey, logger.With("component", "payments")), nil
}

func buildEmailSender(ctx context.Context, cfg config.Config, logger *slog.Logger) (policies.EmailSender, error) {
	emailLogger := logger.With("component", "email")
	switch cfg.EmailProvider {
	case config.EmailSMTP:
		s, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		}, emailLogger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.EmailSES:
		s, err := notify.NewSESSender(ctx, cfg.SESRegion, cfg.EmailFrom, cfg.EmailFromName, emailLogger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return notify.LogSender{Logger: emailLogger}, nil
	}
}

func buildVerifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (domainauth.TokenVerifier, error) {
	admins := domainauth.NewAdminSet(cfg.AdminUIDs)
	if cfg.AuthMode == config.AuthInsecure {
		logger.Warn("insecure token verifier enabled, do not use outside local development")
		return auth.InsecureVerifier{Admins: admins}, nil
	}
	v, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile, admins, logger.With("component", "auth"))
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	return v, nil
}

func buildInbox(ctx context.Context, cfg config.Config, mongoClient *mongodb.Client, app *application) (policies.Inbox, error) {
	switch cfg.InboxBackend {
	case config.InboxMongo:
		store, err := inbox.NewStore(ctx, mongoClient.DB, inboxConsumer, cfg.InboxTTL)
		if err != nil {
			return nil, fmt.Errorf("inbox: %w", err)
		}
		return store, nil
	case config.InboxRedis:
		store, client, err := inbox.NewRedisStore(cfg.RedisURL, inboxConsumer, cfg.InboxTTL)
		if err != nil {
			return nil, fmt.Errorf("inbox: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		app.health.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return store, nil
	default:
		return memory.NewInbox(), nil
	}
}

func buildProducer(cfg config.Config, logger *slog.Logger, app *application) (infraoutbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return infraoutbox.LogProducer{Logger: logger.With("component", "events")}, nil
	}
	p, err := kafka.NewProducer(cfg.KafkaBrokers, "geargrab", nil)
	if err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return p.Close() })
	return p, nil
}
