package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/mrsingh-rishi/brahmastra/api"
	"github.com/mrsingh-rishi/brahmastra/assistant"
	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/config"
	"github.com/mrsingh-rishi/brahmastra/device"
	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/output"
	"github.com/mrsingh-rishi/brahmastra/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("BRAHMASTRA_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("brahmastra exited", "error", logger.RedactSensitiveData(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	backend, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()
	st, err := store.New(backend)
	if err != nil {
		return err
	}

	client, err := llm.NewGeminiClient(ctx, cfg.Live.APIKey)
	if err != nil {
		return err
	}
	connector, err := llm.NewGeminiConnector(client, cfg.Live.Model)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(client, cfg.Search)
	if err != nil {
		return err
	}

	devices, err := device.Open(cfg.Audio.Backend, cfg.Audio.InputWAV)
	if err != nil {
		return err
	}
	defer devices.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	hud, err := output.NewHUD(time.Second)
	if err != nil {
		return err
	}
	hud.Start()
	defer hud.Stop()

	a, err := assistant.New(assistant.Options{
		Store:              st,
		Connector:          connector,
		Searcher:           searcher,
		Devices:            devices,
		Scheduler:          audio.NewScheduler(cfg.Audio.OutputRate, cfg.Audio.GainRamp),
		Metrics:            m,
		Publisher:          hud,
		Voice:              cfg.Live.Voice,
		InputRate:          cfg.Audio.InputRate,
		ChunkFrames:        cfg.Audio.ChunkFrames,
		OutputFrames:       cfg.Audio.OutputFrames,
		RecordDir:          cfg.Audio.RecordDir,
		ResponseClearDelay: cfg.Assistant.ResponseClearDelay,
		LogCapacity:        cfg.Assistant.LogCapacity,
		HistoryLimit:       cfg.Assistant.HistoryLimit,
	})
	if err != nil {
		return err
	}

	server, err := api.NewServer(a, hud, reg)
	if err != nil {
		return err
	}

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Listen(cfg.Server.Address) }()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serveErr:
		return err
	}

	if err := server.Shutdown(); err != nil {
		logger.Warn("HTTP shutdown failed", "error", err)
	}
	if err := <-runDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Backend, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		b := store.NewRedisBackend(client, cfg.Prefix)
		return b, func() { b.Close() }, nil
	default:
		b, err := store.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	}
}

func newSearcher(client *genai.Client, cfg config.SearchConfig) (llm.Searcher, error) {
	if cfg.Provider == "openai" {
		return llm.NewOpenAISearcher(cfg.OpenAIAPIKey, assistant.SystemInstructionBase, cfg.Model)
	}
	return llm.NewGeminiSearcher(client, cfg.Model)
}
