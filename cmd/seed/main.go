package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/config"
	repo "github.com/Temutjin2k/taxi-dispatch/internal/adapter/postgres"
	cache "github.com/Temutjin2k/taxi-dispatch/internal/adapter/redis"
	"github.com/Temutjin2k/taxi-dispatch/internal/app/demo"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/auth"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	"github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
	redisclient "github.com/Temutjin2k/taxi-dispatch/pkg/redis"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

func main() {
	flag.Parse()

	// short timeout for migration operations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Pool.Close()

	if err := repo.Migrate(ctx, client.Pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	tx := trm.New(client.Pool, trm.WithErrorClassifier(repo.TxError))
	data := demo.New(time.Now().UTC())
	err = demo.Load(ctx, tx,
		repo.NewVehicleRepo(client.Pool),
		repo.NewUserRepo(client.Pool),
		repo.NewTripRepo(client.Pool),
		data,
	)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("seeded %d vehicles, %d users, %d trips\n", len(data.Vehicles), len(data.Users), len(data.Trips))

	// Drop the cached vehicle map so the directory sees the seeded units right away.
	if cfg.Redis.Enabled() {
		rdb, err := redisclient.NewClient(ctx, cfg.Redis.ClientConfig(), logger.InitLogger("seed", logger.LevelInfo))
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		if err := cache.NewVehicleCache(rdb.RDB, nil, 0, nil).Invalidate(ctx); err != nil {
			log.Fatalf("invalidate vehicle cache: %v", err)
		}
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	for _, u := range []struct {
		id   string
		role types.UserRole
	}{
		{demo.AdminID, types.AdminRole},
		{demo.PassengerAID, types.PassengerRole},
		{demo.PassengerBID, types.PassengerRole},
	} {
		token, err := tokens.Issue(u.id, u.role, cfg.Auth.AccessTokenTTL)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Printf("%-9s %s\n  %s\n", u.role, u.id, token)
	}
}
