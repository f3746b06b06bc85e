// Command watcher runs exactly one monitoring cycle and exits. It has no
// internal scheduler; cron (or any external scheduler) re-invokes it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pokewonder/pokewonder/internal/config"
	"github.com/pokewonder/pokewonder/internal/coordinator"
	"github.com/pokewonder/pokewonder/internal/fetch"
	"github.com/pokewonder/pokewonder/internal/logger"
	"github.com/pokewonder/pokewonder/internal/natsconn"
	"github.com/pokewonder/pokewonder/internal/notify"
	"github.com/pokewonder/pokewonder/internal/publisher"
	"github.com/pokewonder/pokewonder/internal/store"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting watcher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	watch, err := config.LoadWatch(cfg.WatchFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.WatchFile).Msg("failed to load watch file")
	}

	st, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}
	defer st.Close()

	var fetcher coordinator.Fetcher
	switch cfg.Fetcher {
	case "browser":
		fetcher = fetch.NewBrowserFetcher(cfg.UserAgent, 0)
	default:
		fetcher = fetch.NewHTTPFetcher(cfg.UserAgent, cfg.FetchTimeout)
	}

	notifier := buildNotifier(cfg, log)

	var pub coordinator.EventPublisher
	if cfg.NatsURL != "" {
		nc, err := natsconn.New(cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()
			pub = publisher.NewNATSPublisher(nc.Conn)
		}
	}

	coord := coordinator.New(coordinator.Config{
		Targets:        watch.Targets,
		Cooldowns:      watch.Cooldowns,
		ThresholdHours: watch.ThresholdHours,
		Concurrency:    cfg.Concurrency,
		FetchTimeout:   cfg.FetchTimeout,
		Heartbeat:      watch.Heartbeat,
		Summary:        watch.Summary,
	}, fetcher, notifier, pub, st, log)

	result, err := coord.RunCycle(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cycle failed")
	}

	log.Info().
		Str("cycle_id", result.CycleID).
		Int("emitted", result.Emitted).
		Int("notify_failures", result.NotifyFailures).
		Msg("watcher done")
}

func openStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.StateBackend == "sqlite" {
		return store.NewSQLiteStore(cfg.StatePath)
	}
	return store.NewFileStore(cfg.StatePath, log)
}

func buildNotifier(cfg *config.Config, log *logger.Logger) coordinator.Notifier {
	if cfg.DryRun || cfg.TGBotToken == "" || cfg.TGChatID == 0 {
		if !cfg.DryRun {
			log.Warn().Msg("telegram credentials missing, logging notifications instead")
		}
		return notify.NewConsoleNotifier(log)
	}
	tg, err := notify.NewTelegramNotifier(cfg.TGBotToken, cfg.TGChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifier unavailable, logging notifications instead")
		return notify.NewConsoleNotifier(log)
	}
	return tg
}
