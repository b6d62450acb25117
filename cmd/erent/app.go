package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	analyticsapp "erent/internal/app/handlers/analytics"
	chatapp "erent/internal/app/handlers/chat"
	notificationsapp "erent/internal/app/handlers/notifications"
	paymentsapp "erent/internal/app/handlers/payments"
	propertiesapp "erent/internal/app/handlers/properties"
	referenceapp "erent/internal/app/handlers/reference"
	rentsapp "erent/internal/app/handlers/rents"
	reviewsapp "erent/internal/app/handlers/reviews"
	usersapp "erent/internal/app/handlers/users"
	viewingsapp "erent/internal/app/handlers/viewings"
	"erent/internal/app/middleware"
	appoutbox "erent/internal/app/outbox"
	"erent/internal/app/policies"
	"erent/internal/app/queries"
	"erent/internal/app/schedule"
	authsvc "erent/internal/app/services/auth"
	"erent/internal/app/uow"
	domainauth "erent/internal/domain/auth"
	"erent/internal/domain/chat"
	"erent/internal/domain/payment"
	"erent/internal/domain/rent"
	"erent/internal/domain/viewing"
	"erent/internal/infra/broker/kafka"
	"erent/internal/infra/config"
	"erent/internal/infra/db/ledger"
	"erent/internal/infra/db/mongo"
	ginserver "erent/internal/infra/http/gin"
	"erent/internal/infra/inbox"
	"erent/internal/infra/mail"
	infraoutbox "erent/internal/infra/outbox"
	"erent/internal/infra/payments/stripepay"
	"erent/internal/infra/security"
	"erent/internal/infra/storage/memory"
	"erent/internal/infra/storage/redisstore"
	"erent/internal/infra/storage/s3"
	"erent/internal/infra/storage/scylla"
	"erent/internal/infra/validation"
)

const completeViewingsJob = "complete-viewings"

type application struct {
	handlers  ginserver.Handlers
	tracer    trace.Tracer
	factory   uow.UoWFactory
	scheduler *schedule.Scheduler
	relay     *infraoutbox.Worker
	consumer  *kafka.Consumer
	topics    []string
	checks    []func(context.Context) error
	closers   []func(context.Context) error
}

// persistence is the transactional side of the service: aggregates, the
// outbox written in the same unit of work, and the dedup stores.
type persistence struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	relayStore  infraoutbox.Store
	idempotency middleware.IdempotencyStore
	inbox       notificationsapp.Inbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{tracer: otel.Tracer(cfg.ServiceName)}
	clock := policies.Clock(time.Now)

	store, err := app.openPersistence(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	app.factory = store.factory

	sessions, err := app.openSessions(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	payments, err := app.openLedger(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	messages, err := app.openChat(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	images, err := openImages(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	gateway, err := openGateway(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	mailer := openMailer(cfg, logger)

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		app.close(logger)
		return nil, fmt.Errorf("jwt issuer: %w", err)
	}
	authService := &authsvc.Service{
		UoWFactory: store.factory,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     tokens,
		SessionTTL: cfg.SessionTTL,
		Clock:      clock,
		Logger:     logger,
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	reference := &referenceapp.Handler{UoWFactory: store.factory, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, reference.Create())
	commands.RegisterHandler(commandBus, reference.Update())
	commands.RegisterHandler(commandBus, reference.Delete())
	queries.RegisterHandler[referenceapp.GetEntryQuery, dto.ReferenceEntry](queryBus, &referenceapp.GetEntryHandler{UoWFactory: store.factory})
	queries.RegisterHandler[referenceapp.ListEntriesQuery, dto.Page[dto.ReferenceEntry]](queryBus, &referenceapp.ListEntriesHandler{UoWFactory: store.factory})

	users := &usersapp.Handler{UoWFactory: store.factory, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, users.UpdateProfile())
	commands.RegisterHandler(commandBus, users.SetActive())
	commands.RegisterHandler(commandBus, users.AssignRoles())
	queries.RegisterHandler[usersapp.GetUserQuery, dto.User](queryBus, &usersapp.GetUserHandler{UoWFactory: store.factory})
	queries.RegisterHandler[usersapp.ListUsersQuery, dto.Page[dto.User]](queryBus, &usersapp.ListUsersHandler{UoWFactory: store.factory})

	properties := &propertiesapp.Handler{
		UoWFactory: store.factory,
		Outbox:     store.outbox,
		Encoder:    encoder,
		Images:     images,
		Clock:      clock,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, properties.Create())
	commands.RegisterHandler(commandBus, properties.Update())
	commands.RegisterHandler(commandBus, properties.SetActive())
	commands.RegisterHandler(commandBus, properties.AddImage())
	commands.RegisterHandler(commandBus, properties.RemoveImage())
	queries.RegisterHandler[propertiesapp.GetPropertyQuery, dto.Property](queryBus, &propertiesapp.GetPropertyHandler{UoWFactory: store.factory})
	queries.RegisterHandler[propertiesapp.SearchPropertiesQuery, dto.Page[dto.Property]](queryBus, &propertiesapp.SearchPropertiesHandler{UoWFactory: store.factory, Logger: logger})

	commands.RegisterHandler[rentsapp.CreateRentCommand, dto.Rent](commandBus, &rentsapp.CreateRentHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	commands.RegisterHandler[rentsapp.UpdateRentCommand, dto.Rent](commandBus, &rentsapp.UpdateRentHandler{
		UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger,
	})
	transitions := &rentsapp.TransitionHandler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, transitions.Accept())
	commands.RegisterHandler(commandBus, transitions.Reject())
	commands.RegisterHandler(commandBus, transitions.Cancel())
	commands.RegisterHandler(commandBus, transitions.Pay())
	queries.RegisterHandler[rentsapp.GetRentQuery, dto.Rent](queryBus, &rentsapp.GetRentHandler{UoWFactory: store.factory})
	queries.RegisterHandler[rentsapp.SearchRentsQuery, dto.Page[dto.Rent]](queryBus, &rentsapp.SearchRentsHandler{UoWFactory: store.factory, Logger: logger})
	queries.RegisterHandler[rentsapp.QuoteRentQuery, dto.Quote](queryBus, &rentsapp.QuoteRentHandler{UoWFactory: store.factory})

	viewings := &viewingsapp.Handler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, viewings.Schedule())
	commands.RegisterHandler(commandBus, viewings.Approve())
	commands.RegisterHandler(commandBus, viewings.Reject())
	commands.RegisterHandler(commandBus, viewings.Cancel())
	commands.RegisterHandler(commandBus, viewings.CompleteDue())
	queries.RegisterHandler[viewingsapp.GetViewingQuery, dto.Viewing](queryBus, &viewingsapp.GetViewingHandler{UoWFactory: store.factory})
	queries.RegisterHandler[viewingsapp.SearchViewingsQuery, dto.Page[dto.Viewing]](queryBus, &viewingsapp.SearchViewingsHandler{UoWFactory: store.factory})

	reviews := &reviewsapp.Handler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, reviews.Submit())
	commands.RegisterHandler(commandBus, reviews.Update())
	commands.RegisterHandler(commandBus, reviews.Withdraw())
	queries.RegisterHandler[reviewsapp.GetReviewQuery, dto.Review](queryBus, &reviewsapp.GetReviewHandler{UoWFactory: store.factory})
	queries.RegisterHandler[reviewsapp.SearchReviewsQuery, dto.ReviewPage](queryBus, &reviewsapp.SearchReviewsHandler{UoWFactory: store.factory, Logger: logger})

	notifications := &notificationsapp.Handler{UoWFactory: store.factory, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, notifications.MarkRead())
	commands.RegisterHandler(commandBus, notifications.MarkAllRead())
	queries.RegisterHandler[notificationsapp.ListNotificationsQuery, dto.Page[dto.Notification]](queryBus, &notificationsapp.ListNotificationsHandler{UoWFactory: store.factory})
	queries.RegisterHandler[notificationsapp.GetNotificationQuery, dto.Notification](queryBus, &notificationsapp.GetNotificationHandler{UoWFactory: store.factory})
	queries.RegisterHandler[notificationsapp.UnreadCountQuery, dto.Count](queryBus, &notificationsapp.UnreadCountHandler{UoWFactory: store.factory})

	chatHandler := &chatapp.Handler{Messages: messages, UoWFactory: store.factory, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, chatHandler.Send())
	commands.RegisterHandler(commandBus, chatHandler.MarkRead())
	commands.RegisterHandler(commandBus, chatHandler.MarkConversationRead())
	queries.RegisterHandler[chatapp.ConversationQuery, dto.Page[dto.Message]](queryBus, &chatapp.ConversationHandler{Messages: messages})
	queries.RegisterHandler[chatapp.ConversationsQuery, []dto.Conversation](queryBus, &chatapp.ConversationsHandler{Messages: messages})
	queries.RegisterHandler[chatapp.UnreadCountQuery, dto.Count](queryBus, &chatapp.UnreadCountHandler{Messages: messages})

	paymentsHandler := &paymentsapp.Handler{Payments: payments, Gateway: gateway, UoWFactory: store.factory, Clock: clock, Logger: logger}
	commands.RegisterHandler(commandBus, paymentsHandler.CreateIntent())
	commands.RegisterHandler(commandBus, paymentsHandler.Confirm())
	queries.RegisterHandler[paymentsapp.GetPaymentQuery, dto.Payment](queryBus, &paymentsapp.GetPaymentHandler{Payments: payments})
	queries.RegisterHandler[paymentsapp.SearchPaymentsQuery, dto.Page[dto.Payment]](queryBus, &paymentsapp.SearchPaymentsHandler{Payments: payments})

	analytics := &analyticsapp.Handler{UoWFactory: store.factory, Clock: clock}
	queries.RegisterHandler(queryBus, analytics.Platform())
	queries.RegisterHandler(queryBus, analytics.Landlord())

	validator := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Tracing(app.tracer),
		middleware.Validation(validator),
		middleware.Authorization(access.RoleAuthorizer{}),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.factory, nil, middleware.RetryPolicy{
			Attempts:  3,
			Retryable: []error{uow.ErrConcurrentUpdate},
		}),
		middleware.OutboxFlush(store.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryTracing(app.tracer),
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(access.RoleAuthorizer{}),
	)

	app.scheduler = schedule.New(commandBusWithMiddleware, logger)
	if err := app.scheduler.Register(completeViewingsJob, cfg.ViewingCompletionSpec, viewingsapp.CompleteDueCommand{}); err != nil {
		app.close(logger)
		return nil, err
	}

	projector := &notificationsapp.Projector{
		UoWFactory: store.factory,
		Inbox:      store.inbox,
		Mailer:     mailer,
		Clock:      clock,
		Logger:     logger,
	}
	producer, err := app.openBroker(cfg, projector, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	app.relay = &infraoutbox.Worker{
		Store:       store.relayStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      cfg.ServiceName,
		ID:          hostname(),
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	app.handlers = ginserver.Handlers{
		Reference:     ginserver.ReferenceHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Properties:    ginserver.PropertiesHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Rents:         ginserver.RentsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Viewings:      ginserver.ViewingsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Reviews:       ginserver.ReviewsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Notifications: ginserver.NotificationsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Chat:          ginserver.ChatHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Payments:      ginserver.PaymentsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Analytics:     ginserver.AnalyticsHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Auth:          ginserver.AuthHandler{Service: authService, Queries: queryBusWithMiddleware, Logger: logger},
		Users:         ginserver.UsersHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Service: authService,
			Logger:  logger,
		}.Handle,
	}
	return app, nil
}

// openPersistence picks Mongo when MONGO_URI is set and the in-memory store
// otherwise.
func (a *application) openPersistence(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence, error) {
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, using in-memory storage")
		store := memory.NewStore()
		return persistence{
			factory:     store,
			outbox:      store.Outbox(),
			relayStore:  store.Outbox(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:       memory.NewInbox(),
		}, nil
	}

	client, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.ServiceName)
	if err != nil {
		return persistence{}, fmt.Errorf("mongo connect: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.checks = append(a.checks, client.Ping)
	if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
		return persistence{}, fmt.Errorf("mongo indexes: %w", err)
	}
	idem, err := mongo.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return persistence{}, fmt.Errorf("idempotency store: %w", err)
	}
	seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return persistence{}, fmt.Errorf("inbox store: %w", err)
	}
	box := infraoutbox.NewMongoStore(client.DB)
	logger.Info("mongo storage ready", "database", cfg.MongoDB)
	return persistence{
		factory:     mongo.Factory{DB: client.DB},
		outbox:      box,
		relayStore:  box,
		idempotency: idem,
		inbox:       seen,
	}, nil
}

func (a *application) openSessions(ctx context.Context, cfg config.Config, logger *slog.Logger) (domainauth.SessionStore, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return memory.NewSessionStore(), nil
	}
	client, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks = append(a.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
	return redisstore.NewSessionStore(client, ""), nil
}

func (a *application) openLedger(ctx context.Context, cfg config.Config, logger *slog.Logger) (payment.Repository, error) {
	if cfg.LedgerDSN == "" {
		logger.Warn("LEDGER_DSN not set, payments are kept in memory")
		return memory.NewPaymentStore(), nil
	}
	db, err := ledger.Open(ctx, cfg.LedgerDriver, cfg.LedgerDSN)
	if err != nil {
		return nil, fmt.Errorf("ledger open: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	a.checks = append(a.checks, db.PingContext)
	return ledger.NewPaymentRepository(db), nil
}

func (a *application) openChat(ctx context.Context, cfg config.Config, logger *slog.Logger) (chat.Repository, error) {
	if len(cfg.ScyllaHosts) == 0 {
		logger.Warn("SCYLLA_HOSTS not set, chat is kept in memory")
		return memory.NewChatStore(), nil
	}
	consistency, err := scylla.ParseConsistency(cfg.ScyllaConsistency)
	if err != nil {
		return nil, err
	}
	session, err := scylla.NewSession(ctx, scylla.Config{
		Hosts:       cfg.ScyllaHosts,
		Keyspace:    cfg.ScyllaKeyspace,
		Username:    cfg.ScyllaUsername,
		Password:    cfg.ScyllaPassword,
		Consistency: consistency,
		Timeout:     cfg.ScyllaTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("scylla session: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		session.Close()
		return nil
	})
	return scylla.NewChatStore(session, logger), nil
}

func openImages(cfg config.Config, logger *slog.Logger) (policies.ImageStore, error) {
	if cfg.S3Endpoint == "" {
		logger.Warn("S3_ENDPOINT not set, image uploads are disabled")
		return s3.Unconfigured{}, nil
	}
	store, err := s3.NewImageStore(s3.Config{
		Endpoint:       cfg.S3Endpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Bucket:         cfg.S3Bucket,
		UseSSL:         cfg.S3UseSSL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}
	return store, nil
}

func openGateway(cfg config.Config, logger *slog.Logger) (policies.PaymentGateway, error) {
	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
		return stripepay.Unconfigured{}, nil
	}
	gateway, err := stripepay.New(cfg.StripeSecretKey)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	return gateway, nil
}

func openMailer(cfg config.Config, logger *slog.Logger) policies.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, mails are only logged")
		return mail.Log{Logger: logger}
	}
	return mail.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
}

// openBroker returns the producer the outbox relay publishes to. With Kafka
// the projector consumes the rent and viewing topics; without it the relay
// hands events straight to the projector.
func (a *application) openBroker(cfg config.Config, projector *notificationsapp.Projector, logger *slog.Logger) (infraoutbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, events are projected in process")
		return kafka.Loopback{Projection: projector}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafka.ProjectionHandler{Projection: projector}, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	a.consumer = consumer
	a.topics = []string{
		infraoutbox.TopicFor(cfg.KafkaTopicPrefix, rent.EventCreated),
		infraoutbox.TopicFor(cfg.KafkaTopicPrefix, viewing.EventCreated),
	}
	return producer, nil
}

// startBackground runs the outbox relay, the event consumer and the
// scheduler until ctx is cancelled.
func (a *application) startBackground(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox relay stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		a.scheduler.Run(ctx)
	}()
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(ctx, a.topics); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}
}

func (a *application) seedReference(ctx context.Context, path string, logger *slog.Logger) error {
	entries, err := config.LoadSeed(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("reference seed file not found, skipping", "path", path)
			return nil
		}
		return err
	}
	n, err := referenceapp.Seed(ctx, a.factory, entries, time.Now(), logger)
	if err != nil {
		return err
	}
	logger.Info("reference data seeded", "inserted", n, "path", path)
	return nil
}

func (a *application) ready(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// close releases backends in reverse order of opening.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "erent"
	}
	return name
}
