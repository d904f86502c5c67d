package microservices

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/handler"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	repo "github.com/Temutjin2k/taxi-dispatch/internal/adapter/postgres"
	eventbus "github.com/Temutjin2k/taxi-dispatch/internal/adapter/rabbit"
	cache "github.com/Temutjin2k/taxi-dispatch/internal/adapter/redis"
	"github.com/Temutjin2k/taxi-dispatch/internal/app/demo"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/assignment"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/directory"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/reconciler"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/trip"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/metrics"
	"github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
	rabbitmq "github.com/Temutjin2k/taxi-dispatch/pkg/rabbit"
	redisclient "github.com/Temutjin2k/taxi-dispatch/pkg/redis"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
)

type (
	tripRepo interface {
		assignment.TripRepo
		trip.TripRepo
	}

	userRepo interface {
		assignment.UserRepo
		directory.DriverLister
		reconciler.DriverStore
	}
)

// storage is the record store selected by database.driver.
type storage struct {
	tx       trm.TxManager
	trips    tripRepo
	users    userRepo
	vehicles directory.VehicleSource
	clock    reconciler.Clock
	ping     handler.Check

	pg *postgres.PostgreDB
}

func openStorage(ctx context.Context, cfg config.Config, log logger.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.New()
		if err := demo.Load(ctx, store, store.Vehicles(), store.Users(), store.Trips(), demo.New(time.Now().UTC())); err != nil {
			return nil, fmt.Errorf("load demo data: %w", err)
		}
		log.Warn(ctx, "using in-memory store with demo data, nothing is persisted")

		return &storage{
			tx:       store,
			trips:    store.Trips(),
			users:    store.Users(),
			vehicles: store.Vehicles(),
			clock:    store.Clock(),
			ping:     store.Ping,
		}, nil

	default:
		postgresDB, err := postgres.New(ctx, cfg.Database)
		if err != nil {
			log.Error(ctx, "Failed to setup database", err)
			return nil, err
		}

		if err := repo.Migrate(ctx, postgresDB.Pool); err != nil {
			postgresDB.Pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		retryCtx := wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		tx := trm.New(postgresDB.Pool,
			trm.WithMaxAttempts(cfg.Assignment.MaxTxAttempts),
			trm.WithErrorClassifier(repo.TxError),
			trm.WithRetryNotify(func(err error, wait time.Duration) {
				metrics.TxRetriesTotal.Inc()
				log.Debug(retryCtx, "transaction conflict, retrying", "retry_in", wait.String(), "error", err.Error())
			}),
		)

		return &storage{
			tx:       tx,
			trips:    repo.NewTripRepo(postgresDB.Pool),
			users:    repo.NewUserRepo(postgresDB.Pool),
			vehicles: repo.NewVehicleRepo(postgresDB.Pool),
			clock:    repo.NewClock(postgresDB.Pool),
			ping:     postgresDB.Pool.Ping,
			pg:       postgresDB,
		}, nil
	}
}

func (s *storage) close() {
	if s.pg != nil && s.pg.Pool != nil {
		s.pg.Pool.Close()
	}
}

// openRedis returns nil when Redis is not configured.
func openRedis(ctx context.Context, cfg config.Config, log logger.Logger) (*redisclient.Client, error) {
	if !cfg.Redis.Enabled() {
		log.Info(ctx, "redis disabled: vehicle cache and sweep leases are off")
		return nil, nil
	}
	return redisclient.NewClient(ctx, cfg.Redis.ClientConfig(), log)
}

// openEvents returns nils when RabbitMQ is not configured.
func openEvents(ctx context.Context, cfg config.Config, log logger.Logger) (*rabbitmq.RabbitMQ, *eventbus.EventProducer, error) {
	if !cfg.RabbitMQ.Enabled() {
		log.Info(ctx, "rabbitmq disabled: events are not published")
		return nil, nil, nil
	}

	client, err := rabbitmq.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		return nil, nil, err
	}
	if err := client.DeclareTopicExchange(ctx, types.DispatchExchange); err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return client, eventbus.NewEventProducer(client), nil
}

func newReconciler(st *storage, rdb *redisclient.Client, events *eventbus.EventProducer, cfg config.Config, log logger.Logger) *reconciler.Service {
	var (
		locker    reconciler.Locker
		publisher reconciler.Publisher
	)
	if rdb != nil {
		locker = cache.NewSweepLease(rdb.RDB)
	}
	if events != nil {
		publisher = events
	}

	return reconciler.New(st.users, st.clock, locker, publisher, reconciler.Config{
		StuckBusyCeiling: cfg.Reconciler.StuckBusyCeiling,
		IdleCeiling:      cfg.Reconciler.IdleCeiling,
		WriteAttempts:    cfg.Reconciler.WriteAttempts,
		LockTTL:          cfg.Reconciler.LockTTL,
	}, log)
}

// healthChecks lists the dependencies that were opened; disabled ones are left out.
func healthChecks(st *storage, rdb *redisclient.Client, mq *rabbitmq.RabbitMQ) map[string]handler.Check {
	checks := map[string]handler.Check{"store": st.ping}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}
	if mq != nil {
		checks["rabbitmq"] = mq.Ping
	}
	return checks
}

// closeInfra releases optional clients in reverse order of opening.
func closeInfra(ctx context.Context, mq *rabbitmq.RabbitMQ, rdb *redisclient.Client, st *storage, log logger.Logger) {
	if mq != nil {
		if err := mq.Close(ctx); err != nil {
			log.Warn(ctx, "Failed to close rabbitmq", "error", err.Error())
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn(ctx, "Failed to close redis", "error", err.Error())
		}
	}
	if st != nil {
		st.close()
	}
}
