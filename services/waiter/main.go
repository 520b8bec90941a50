package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
	"github.com/appetiteclub/tableside/services/waiter/internal/operations"
)

const (
	appNamespace = "WAITER"
	appName      = "waiter"
	appVersion   = "0.1.0"
)

func main() {
	// Local runs only; deployed instances get their environment from the platform.
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	cfg, err := operations.LoadConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) invalid configuration: %v", appName, appVersion, err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	gate, err := auth.NewGate(cfg.Auth, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot create auth gate: %v", appName, appVersion, err)
	}

	posClient := pos.NewClient(cfg.APIURL, logger)
	newPOS := func(token string) operations.POS {
		return posClient.WithToken(token)
	}

	store := operations.NewSessionStore(cfg.SessionTTL)
	poller := operations.NewPoller(store, cfg.PollInterval, logger)
	audit := operations.NewAuditLogger(logger)

	lifecycles := []interface{}{
		apt.LifecycleHooks{
			OnStart: func(ctx context.Context) error {
				if err := posClient.Ping(ctx); err != nil {
					logger.Error("pos api not reachable at startup", "url", cfg.APIURL, "error", err)
				}
				return nil
			},
		},
		apt.LifecycleHooks{
			OnStart: func(context.Context) error {
				return poller.Start(ctx)
			},
			OnStop: poller.Stop,
		},
		apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				store.Close()
				return nil
			},
		},
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		bus, err := pkg.NewNATSBus(cfg.NATSURL, appName, logger)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS: %v", appName, appVersion, err)
		}
		publisher = bus

		orderEvents := operations.NewOrderEventsSubscriber(bus, store, logger)
		lifecycles = append(lifecycles,
			apt.LifecycleHooks{
				OnStart: func(context.Context) error {
					return orderEvents.Start(ctx)
				},
			},
			apt.LifecycleHooks{
				OnStop: func(context.Context) error {
					return bus.Close()
				},
			},
		)
	} else {
		logger.Info("nats.url not set, order events disabled")
	}

	handler := operations.NewHandler(operations.HandlerDeps{
		Gate:      gate,
		Store:     store,
		NewPOS:    newPOS,
		Publisher: publisher,
		Audit:     audit,
	}, cfg, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s) against %s with %s sign-in", appName, appVersion, cfg.APIURL, gate.Name())

	err = ms.Run(ctx)
	if err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
