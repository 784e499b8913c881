package config_test

import (
	"fmt"

	"github.com/wonny/smart-portfolio/pkg/config"
)

// Loading without a database, as `portfolio api --memory` and `portfolio market` do
func ExampleWithoutDatabase() {
	cfg, err := config.Load(config.WithoutDatabase())
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Listening on :%s (%s)\n", cfg.Port, cfg.Env)
	fmt.Printf("Market snapshots cached for %s\n", cfg.Market.CacheTTL)
	fmt.Printf("Warmup schedule: %s\n", cfg.Scheduler.WarmupSchedule)
}
