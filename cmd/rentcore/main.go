package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentcore/internal/app/commands"
	availabilityapp "rentcore/internal/app/handlers/availability"
	bookingapp "rentcore/internal/app/handlers/booking"
	leaseapp "rentcore/internal/app/handlers/lease"
	rentalapp "rentcore/internal/app/handlers/rental"
	"rentcore/internal/app/middleware"
	appoutbox "rentcore/internal/app/outbox"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/uow"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/infra/broker/kafka"
	"rentcore/internal/infra/config"
	dbmongo "rentcore/internal/infra/db/mongo"
	ginserver "rentcore/internal/infra/http/gin"
	"rentcore/internal/infra/obs"
	infraoutbox "rentcore/internal/infra/outbox"
	"rentcore/internal/infra/storage/memory"
	"rentcore/internal/infra/validate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready:   app.ready,
		Profile: app.storageProfile,
	}, app.handlers)

	if cfg.PropertyFixtures != "" {
		if err := app.loadPropertyFixtures(ctx, cfg.PropertyFixtures, logger); err != nil {
			logger.Warn("property fixtures load failed", "error", err, "path", cfg.PropertyFixtures)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", app.storageProfile)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers       ginserver.Handlers
	properties     domainproperty.Repository
	worker         *infraoutbox.Worker
	producer       *kafka.Producer
	ready          func() error
	storageProfile string
}

func (a *application) close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
}

func buildApplication(cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		factory    uow.UoWFactory
		box        appoutbox.Outbox
		idStore    middleware.IdempotencyStore
		properties domainproperty.Repository
	)

	if cfg.UseMongo() {
		client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		propertyRepo := dbmongo.NewPropertyRepository(client.DB)
		mongoFactory := dbmongo.Factory{
			DB:           client.DB,
			PropertyRepo: propertyRepo,
			BookingRepo:  dbmongo.NewBookingStore(client.DB),
			TenantRepo:   dbmongo.NewTenantStore(client.DB),
			RequestRepo:  dbmongo.NewRequestStore(client.DB),
			BlockedRepo:  dbmongo.NewBlockedStore(client.DB),
		}
		outboxStore := infraoutbox.NewStore(client.DB)
		factory = mongoFactory
		box = outboxStore
		idStore = dbmongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		properties = propertyRepo
		app.ready = func() error { return client.Ping(context.Background()) }
		app.storageProfile = "mongo"

		if cfg.UseKafka() {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		}
	} else {
		propertyRepo := memory.NewPropertyRepository()
		factory = memory.NewFactory(
			propertyRepo,
			memory.NewBookingStore(),
			memory.NewTenantStore(),
			memory.NewRequestStore(),
			memory.NewBlockedStore(),
		)
		box = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		properties = propertyRepo
		app.storageProfile = "memory"
	}
	app.properties = properties

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateDailyBookingCommand{}.Key(), &bookingapp.CreateDailyBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, rentalapp.SubmitRentalRequestCommand{}.Key(), &rentalapp.SubmitRentalRequestHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, rentalapp.RespondToRequestCommand{}.Key(), &rentalapp.RespondToRequestHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, rentalapp.WithdrawRequestCommand{}.Key(), &rentalapp.WithdrawRequestHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, availabilityapp.BlockPeriodCommand{}.Key(), &availabilityapp.BlockPeriodHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetConflictsQuery{}.Key(), &availabilityapp.GetConflictsHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, leaseapp.ListExpiringQuery{}.Key(), &leaseapp.ListExpiringHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, leaseapp.ListExpiredQuery{}.Key(), &leaseapp.ListExpiredHandler{
		UoWFactory: factory,
		Logger:     logger,
	})

	validator := validate.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Validation(validator),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
	)

	app.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{
			Queries:  queryBusWithMiddleware,
			Commands: commandBusWithMiddleware,
		},
		Booking: ginserver.BookingHandler{Commands: commandBusWithMiddleware},
		Rental:  ginserver.RentalHandler{Commands: commandBusWithMiddleware},
		Lease:   ginserver.LeaseHandler{Queries: queryBusWithMiddleware},
	}
	return app, nil
}

func (a *application) loadPropertyFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		p, err := domainproperty.New(domainproperty.CreateParams{
			ID:          domainproperty.PropertyID(fx.ID),
			Landlord:    domainproperty.LandlordID(fx.Landlord),
			Title:       fx.Title,
			Description: fx.Description,
			Address: domainproperty.Address{
				Line1:   fx.Address.Line1,
				Line2:   fx.Address.Line2,
				City:    fx.Address.City,
				Country: fx.Address.Country,
			},
			Mode:             domainproperty.RentalMode(fx.Mode),
			NightlyRateCents: fx.NightlyRateCents,
			MonthlyRentCents: fx.MonthlyRentCents,
			Now:              now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := a.properties.Save(ctx, p); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", p.ID, "mode", p.Mode)
	}
	return nil
}

type propertyFixture struct {
	ID               string         `json:"id"`
	Landlord         string         `json:"landlord"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Address          fixtureAddress `json:"address"`
	Mode             string         `json:"mode"`
	NightlyRateCents int64          `json:"nightly_rate_cents"`
	MonthlyRentCents int64          `json:"monthly_rent_cents"`
}

type fixtureAddress struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	Country string `json:"country"`
}
