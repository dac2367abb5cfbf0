package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/brrowapp/brrow-backend/internal/config"
	"github.com/brrowapp/brrow-backend/internal/db"
	"github.com/brrowapp/brrow-backend/internal/dispatch"
	"github.com/brrowapp/brrow-backend/internal/logging"
	appmw "github.com/brrowapp/brrow-backend/internal/middleware"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/preference"
	"github.com/brrowapp/brrow-backend/internal/push"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/brrowapp/brrow-backend/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Set with -ldflags "-X main.gitSHA=... -X main.buildTime=...".
var (
	gitSHA    = "dev"
	buildTime = ""
)

const shutdownTimeout = 20 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(ctx, cfg, logger.Named("db"))
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	var app *firebase.App
	if cfg.FirebaseProjectID != "" {
		var opts []option.ClientOption
		if cfg.FirebaseCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
		}
		app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
		if err != nil {
			return err
		}
	}

	authMw := appmw.NewDevAuthMiddleware()
	if cfg.AuthDisabled {
		logger.Warn("AUTH_DISABLED=true: trusting " + appmw.DevUserHeader + " header")
	} else {
		authMw, err = appmw.NewAuthMiddleware(ctx, app)
		if err != nil {
			return err
		}
	}

	provider, err := buildProvider(ctx, cfg, app, logger)
	if err != nil {
		return err
	}
	gate, err := preference.NewGate(cfg.Dispatch.CriticalCategories)
	if err != nil {
		return err
	}

	deliveryRepo := repository.NewDeliveryRepository(gdb)
	metrics := dispatch.NewMetrics(prometheus.DefaultRegisterer)
	dispatcher := dispatch.NewDispatcher(
		repository.NewDeviceRepository(gdb),
		deliveryRepo,
		provider,
		metrics,
		logger.Named("dispatch"),
		dispatch.Options{
			DeviceConcurrency: cfg.Dispatch.DeviceConcurrency,
			PushTimeout:       cfg.Dispatch.PushTimeout,
			BodyLimit:         cfg.Dispatch.BodyLimit,
			DeviceTTL:         cfg.Dispatch.DeviceTTL,
		},
	)
	supervisor := dispatch.NewSupervisor(dispatcher, cfg.Dispatch.RetryMax, cfg.Dispatch.RetryBaseDelay, logger.Named("retry"))
	processor := dispatch.NewProcessor(dispatch.ProcessorDeps{
		Conversations: repository.NewConversationRepository(gdb),
		Users:         repository.NewUserRepository(gdb),
		Preferences:   repository.NewPreferenceRepository(gdb),
		Notifications: repository.NewNotificationRepository(gdb),
		Gate:          gate,
		Supervisor:    supervisor,
		Metrics:       metrics,
		Log:           logger.Named("dispatch"),
		BodyLimit:     cfg.Dispatch.BodyLimit,
	})

	// Workers outlive the signal context so queued jobs drain on shutdown.
	pool := dispatch.NewPool(cfg.Dispatch.Workers, cfg.Dispatch.WorkerBuffer, processor.Process, logger.Named("pool"))
	pool.Start(context.Background())

	var (
		queue          dispatch.Queue = pool
		rdb            *redis.Client
		consumerDone   = make(chan struct{})
		cancelConsumer = func() {}
	)
	if cfg.Dispatch.QueueBackend == "redis" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Dispatch.RedisAddr, Password: cfg.Dispatch.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		rq := dispatch.NewRedisQueue(rdb, cfg.Dispatch.RedisQueueKey, logger.Named("queue"))
		queue = rq
		var consumerCtx context.Context
		consumerCtx, cancelConsumer = context.WithCancel(context.Background())
		go func() {
			defer close(consumerDone)
			if err := rq.Consume(consumerCtx, pool); err != nil {
				logger.Error("queue consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	pruner := dispatch.NewPruner(deliveryRepo, cfg.Dispatch.Retention, logger.Named("prune"))
	if err := pruner.Start(cfg.Dispatch.PruneSchedule); err != nil {
		return err
	}

	srv := server.New(server.Deps{
		DB:             gdb,
		Auth:           authMw,
		Queue:          queue,
		Log:            logger.Named("http"),
		Gatherer:       prometheus.DefaultGatherer,
		AdminAPIKey:    cfg.AdminAPIKey,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
		SHA:            gitSHA,
		BuildTime:      buildTime,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("starting server", zap.String("addr", addr), zap.String("queue", cfg.Dispatch.QueueBackend))
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	cancelConsumer()
	<-consumerDone
	pool.Stop()
	pruner.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	return runErr
}

func buildProvider(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (push.Provider, error) {
	if cfg.PushDryRun {
		logger.Warn("PUSH_DRY_RUN=true: notifications are logged, not sent")
		return push.NewDryRun(logger.Named("push")), nil
	}
	router := push.NewRouter()
	if cfg.FCMEnabled() {
		fcm, err := push.NewFCM(ctx, app)
		if err != nil {
			return nil, err
		}
		router.Handle(model.PlatformIOS, fcm)
		router.Handle(model.PlatformAndroid, fcm)
	}
	if cfg.WebPushEnabled() {
		wp, err := push.NewWebPush(push.WebPushConfig{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubscriber,
		}, &http.Client{Timeout: cfg.Dispatch.PushTimeout})
		if err != nil {
			return nil, err
		}
		router.Handle(model.PlatformWeb, wp)
	}
	return router, nil
}
