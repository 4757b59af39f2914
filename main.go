package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"github.com/azeez-d3v/docqa/internal/app"
	"github.com/azeez-d3v/docqa/internal/config"
	"github.com/azeez-d3v/docqa/internal/logger"
)

func main() {
	// Structured logger with correlation IDs pulled from context
	base := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(base)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("failed to bootstrap dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Embedder.Close()
	defer deps.LLM.Close()
	if deps.DB != nil {
		defer deps.DB.Close()
	}

	// Typed nils must not become non-nil interfaces in the wiring.
	var objects app.ObjectStore
	if deps.Objects != nil {
		objects = deps.Objects
	}
	var taskPub app.TaskPublisher
	if deps.NSQProducer != nil {
		taskPub = deps.NSQProducer
	}

	a, err := app.New(cfg, deps.DB, deps.VectorStore, taskPub, objects, deps.Embedder, deps.LLM, deps.Extractor, slog.Default())
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// Ingest consumer: processes queued documents and bucket
	// notifications. Returning an error from the handler requeues.
	if cfg.AsyncEnabled() && a.IngestConsumer != nil {
		nsqCfg := nsq.NewConfig()
		consumer, err := nsq.NewConsumer(config.TopicIngestDoc, config.ChannelIngestWorker, nsqCfg)
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
			return a.IngestConsumer.HandleMessage(m)
		}))

		if cfg.NSQLookupd != "" {
			err = consumer.ConnectToNSQLookupd(cfg.NSQLookupd)
		} else {
			err = consumer.ConnectToNSQD(cfg.NSQDHost)
		}
		if err != nil {
			slog.Error("failed to connect NSQ consumer", "error", err)
			os.Exit(1)
		}
		slog.Info("ingest consumer connected", "topic", config.TopicIngestDoc)
		defer consumer.Stop()
	}
	if deps.NSQProducer != nil {
		defer deps.NSQProducer.Stop()
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
