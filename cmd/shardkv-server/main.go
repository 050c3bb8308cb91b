package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/shardkv/pkg/api"
	"github.com/dd0wney/shardkv/pkg/config"
	"github.com/dd0wney/shardkv/pkg/health"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/server"
	"github.com/dd0wney/shardkv/pkg/shardkv"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "shardkv-server: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path, addr string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(configPath, addr string) error {
	cfg, err := loadConfig(configPath, addr)
	if err != nil {
		return err
	}

	logger := logging.NewStderrLogger(cfg.Log.Level)
	logger.Info("shardkv server starting",
		logging.Path(cfg.Store.Dir),
		logging.Int("file_shards", cfg.Store.FileShards),
		logging.Int("group_shards", cfg.Store.GroupShards),
	)

	if err := os.MkdirAll(cfg.Store.Dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	reg := metrics.DefaultRegistry()
	store, err := shardkv.Open(cfg.StoreOptions(logger, reg))
	if err != nil {
		return err
	}

	checker := health.NewChecker()
	checker.RegisterCheck("data_dir", health.DirectoryCheck(store.Dir()))
	checker.RegisterCheck("index", health.IndexCheck(store.IndexPath()))
	checker.RegisterCheck("memory", health.MemoryCheck(0))
	checker.RegisterReadinessCheck("data_dir", health.DirectoryCheck(store.Dir()))
	checker.RegisterReadinessCheck("index", health.IndexCheck(store.IndexPath()))
	checker.RegisterLivenessCheck("alive", health.AliveCheck)

	srv := api.NewServer(api.Config{
		Store:        store,
		Health:       checker,
		Metrics:      reg,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	gs := server.NewGracefulServer(cfg.Server.Addr, srv.Handler(), server.Options{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})

	// Only the log level is applied live; store layout changes need a restart.
	gs.SetConfigReloadFunc(func() error {
		next, err := loadConfig(configPath, addr)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(next.Log.Level))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.UpdateSystemMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()

	return gs.Run(ctx)
}
