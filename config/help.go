package config

import (
	"flag"
	"fmt"
	"strings"
)

const HelpMessage = `
Taxi dispatch

Usage:
  dispatch -mode <mode> [-config-path config.yaml]

Modes:
  dispatch-service     HTTP API: driver directory, requested trips, assignment
  reconciler-service   runs the stuck busy and idle sweeps on a cron schedule
  sweep                runs both sweeps once and exits (non-zero on failure)

Options:
  -config-path   path to the YAML config (default config.yaml)
  -help          show this message
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	var b strings.Builder

	fmt.Fprintf(&b, "mode: %s\n", cfg.Mode)
	fmt.Fprintf(&b, "log level: %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "database: driver=%s host=%s:%s db=%s user=%s password=%s\n",
		cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.User, mask(cfg.Database.Password))
	fmt.Fprintf(&b, "rabbitmq: enabled=%t host=%s:%s\n", cfg.RabbitMQ.Enabled(), cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	fmt.Fprintf(&b, "redis: enabled=%t addr=%s cache_ttl=%s\n", cfg.Redis.Enabled(), cfg.Redis.Addr, cfg.Redis.VehicleCacheTTL)
	fmt.Fprintf(&b, "ports: dispatch=%s reconciler=%s\n", cfg.Services.DispatchService, cfg.Services.ReconcilerService)
	fmt.Fprintf(&b, "reconciler: schedule=%q stuck_busy=%s idle=%s attempts=%d\n",
		cfg.Reconciler.Schedule, cfg.Reconciler.StuckBusyCeiling, cfg.Reconciler.IdleCeiling, cfg.Reconciler.WriteAttempts)
	fmt.Fprintf(&b, "tariff: base=%.2f per_km=%.2f\n", cfg.Tariff.BaseFare, cfg.Tariff.PerKm)

	fmt.Print(b.String())
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
