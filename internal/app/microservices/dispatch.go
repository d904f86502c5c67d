package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/server"
	cache "github.com/Temutjin2k/taxi-dispatch/internal/adapter/redis"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/assignment"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/auth"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/directory"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/trip"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	rabbitmq "github.com/Temutjin2k/taxi-dispatch/pkg/rabbit"
	redisclient "github.com/Temutjin2k/taxi-dispatch/pkg/redis"
)

type DispatchService struct {
	storage    *storage
	redis      *redisclient.Client
	rabbit     *rabbitmq.RabbitMQ
	httpServer *server.API
	cfg        config.Config
	log        logger.Logger
}

func NewDispatch(ctx context.Context, cfg config.Config, log logger.Logger) (*DispatchService, error) {
	s := &DispatchService{cfg: cfg, log: log}

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

	vehicles := s.storage.vehicles
	if s.redis != nil {
		vehicles = cache.NewVehicleCache(s.redis.RDB, vehicles, cfg.Redis.VehicleCacheTTL, log)
	}

	var publisher assignment.Publisher
	if events != nil {
		publisher = events
	}

	tariff := trip.Tariff{BaseFare: cfg.Tariff.BaseFare, PerKm: cfg.Tariff.PerKm}

	httpServer, err := server.New(cfg, server.Services{
		Directory:  directory.New(s.storage.users, vehicles, log),
		Assignment: assignment.New(s.storage.trips, s.storage.users, s.storage.tx, publisher, log),
		Trips:      trip.New(s.storage.trips, s.storage.users, s.storage.tx, tariff, log),
		Reconciler: newReconciler(s.storage, s.redis, events, cfg, log),
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

func (s *DispatchService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "dispatch service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "dispatch service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *DispatchService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	closeInfra(ctx, s.rabbit, s.redis, s.storage, s.log)
}
