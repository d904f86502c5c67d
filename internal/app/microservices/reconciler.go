package microservices

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/server"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/auth"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/reconciler"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	rabbitmq "github.com/Temutjin2k/taxi-dispatch/pkg/rabbit"
	redisclient "github.com/Temutjin2k/taxi-dispatch/pkg/redis"
)

const actionScheduledSweep = "scheduled_sweep"

type ReconcilerService struct {
	storage    *storage
	redis      *redisclient.Client
	rabbit     *rabbitmq.RabbitMQ
	reconciler *reconciler.Service
	scheduler  *cron.Cron
	httpServer *server.API
	cfg        config.Config
	log        logger.Logger
}

func NewReconciler(ctx context.Context, cfg config.Config, log logger.Logger) (*ReconcilerService, error) {
	s := &ReconcilerService{cfg: cfg, log: log}

	var err error
	if s.storage, err = openStorage(ctx, cfg, log); err != nil {
		return nil, err
	}
	if s.redis, err = openRedis(ctx, cfg, log); err != nil {
		s.close(ctx)
		log.Error(ctx, "Failed to setup redis", err)
		return nil, err
	}
	rabbitClient, events, err := openEvents(ctx, cfg, log)
	if err != nil {
		s.close(ctx)
		log.Error(ctx, "Failed to setup rabbitmq", err)
		return nil, err
	}
	s.rabbit = rabbitClient

	s.reconciler = newReconciler(s.storage, s.redis, events, cfg, log)

	cronLog := cronLogger{log: log}
	s.scheduler = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := s.scheduler.AddFunc(cfg.Reconciler.Schedule, s.runScheduled); err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("invalid reconciler schedule %q: %w", cfg.Reconciler.Schedule, err)
	}

	httpServer, err := server.New(cfg, server.Services{
		Reconciler: s.reconciler,
		Auth:       auth.NewTokenService(cfg.Auth.JWTSecret),
		Health:     healthChecks(s.storage, s.redis, s.rabbit),
	}, log)
	if err != nil {
		s.close(ctx)
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}
	s.httpServer = httpServer

	return s, nil
}

func (s *ReconcilerService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	s.scheduler.Start()
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "reconciler service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "reconciler service started", "schedule", s.cfg.Reconciler.Schedule)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *ReconcilerService) runScheduled() {
	ctx := wrap.WithAction(context.Background(), actionScheduledSweep)
	if _, err := s.reconciler.RunAll(ctx); err != nil {
		s.log.Error(wrap.ErrorCtx(ctx, err), "scheduled sweep failed", err)
	}
}

func (s *ReconcilerService) close(ctx context.Context) {
	if s.scheduler != nil {
		// wait for a running sweep to finish before closing the store
		<-s.scheduler.Stop().Done()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	closeInfra(ctx, s.rabbit, s.redis, s.storage, s.log)
}

// cronLogger routes scheduler messages into the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(wrap.WithAction(context.Background(), actionScheduledSweep), "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(wrap.WithAction(context.Background(), actionScheduledSweep), "cron: "+msg, err, keysAndValues...)
}
