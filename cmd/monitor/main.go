package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pickwatch/pkg/apple"
	"pickwatch/pkg/config"
	"pickwatch/pkg/dedup"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/monitor"
	"pickwatch/pkg/notifier"
	"pickwatch/pkg/proxy"
	"pickwatch/pkg/scheduler"
	"pickwatch/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (yaml or json)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	appCfg := cfg.GetAppConfig()
	if err := logger.InitLogger(appCfg.Environment == "development", appCfg.LogFile, appCfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("pickwatch starting",
		zap.String("environment", appCfg.Environment),
		zap.String("log_level", appCfg.LogLevel))

	pool, err := proxy.LoadPool(cfg.GetProxyConfig().File)
	if err != nil {
		logger.Fatal("failed to load proxy pool", zap.Error(err))
	}

	rows, err := config.LoadMonitorRows(cfg.GetMonitorsConfig().File)
	if err != nil {
		logger.Fatal("failed to load monitor definitions", zap.Error(err))
	}
	if len(rows) == 0 {
		logger.Fatal("no monitors defined")
	}

	client := apple.NewClient(cfg.GetUpstreamConfig())
	registry := monitor.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	started := 0
	for _, row := range rows {
		products, err := resolveProducts(ctx, client, pool, row)
		if err != nil {
			logger.Error("skipping monitor, product resolution failed",
				zap.String("channel_id", row.ChannelID),
				zap.Error(err))
			continue
		}

		registry.Register(row.ChannelID, row.Country, row.Zip, products)

		store := dedup.NewMemoryStore(row.Cooldown, 0)
		notify := notifier.NewNotifier(row.WebhookURL, row.Country, store, client)
		evaluator := monitor.NewEvaluator(row.MaxDistance, row.BannedStores, notify)
		loop := monitor.NewLoop(row, products, client, pool, evaluator, registry)

		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Run(ctx)
		}()
		started++
	}
	if started == 0 {
		logger.Fatal("no monitors could be started")
	}
	logger.Info("monitors running", zap.Int("count", started))

	summaryCfg := cfg.GetSummaryConfig()
	var summary *scheduler.SummaryScheduler
	if summaryCfg.Enabled {
		summary, err = scheduler.NewSummaryScheduler(summaryCfg, registry)
		if err != nil {
			logger.Fatal("failed to start summary scheduler", zap.Error(err))
		}
		summary.Start()
	}

	serverCfg := cfg.GetServerConfig()
	var httpServer *server.HTTPServer
	if serverCfg.Enabled {
		httpServer = server.NewHTTPServer(serverCfg, registry, pool)
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error("HTTP server exited", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	if summary != nil {
		summary.Stop()
	}
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}
	wg.Wait()
	logger.Info("pickwatch stopped")
}

// resolveProducts expands a family filter through the catalog, or
// returns the explicit part numbers as-is.
func resolveProducts(ctx context.Context, client *apple.Client, pool *proxy.Pool, row config.MonitorRow) ([]string, error) {
	if !row.UseFamily {
		if len(row.Products) == 0 {
			return nil, fmt.Errorf("monitor %s lists no products", row.ChannelID)
		}
		return row.Products, nil
	}
	if row.Family == nil {
		return nil, fmt.Errorf("monitor %s enables family mode without a family spec", row.ChannelID)
	}
	return client.FetchCatalogProducts(ctx, row.Country, *row.Family, pool.Pick())
}
