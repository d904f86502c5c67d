package microservices

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/reconciler"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	rabbitmq "github.com/Temutjin2k/taxi-dispatch/pkg/rabbit"
	redisclient "github.com/Temutjin2k/taxi-dispatch/pkg/redis"
)

// SweepService runs both sweeps once. It is the entry point for an external cron.
type SweepService struct {
	storage    *storage
	redis      *redisclient.Client
	rabbit     *rabbitmq.RabbitMQ
	reconciler *reconciler.Service
	log        logger.Logger
}

func NewSweep(ctx context.Context, cfg config.Config, log logger.Logger) (*SweepService, error) {
	s := &SweepService{log: log}

	var err error
	if s.storage, err = openStorage(ctx, cfg, log); err != nil {
		return nil, err
	}
	if s.redis, err = openRedis(ctx, cfg, log); err != nil {
		closeInfra(ctx, nil, nil, s.storage, log)
		return nil, err
	}
	rabbitClient, events, err := openEvents(ctx, cfg, log)
	if err != nil {
		closeInfra(ctx, nil, s.redis, s.storage, log)
		return nil, err
	}
	s.rabbit = rabbitClient

	s.reconciler = newReconciler(s.storage, s.redis, events, cfg, log)
	return s, nil
}

// Start returns an error when either sweep could not list its drivers.
func (s *SweepService) Start(ctx context.Context) error {
	defer closeInfra(ctx, s.rabbit, s.redis, s.storage, s.log)

	reports, err := s.reconciler.RunAll(ctx)
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.log.Info(ctx, "sweep report",
			"sweep", r.Sweep,
			"contended", r.Contended,
			"scanned", r.Scanned,
			"corrected", r.Corrected,
			"skipped", r.Skipped,
			"failed", r.Failed,
		)
	}
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}
