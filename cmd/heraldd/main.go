package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"herald/internal/catalog"
	"herald/internal/config"
	"herald/internal/daemon"
	"herald/internal/emitter"
	"herald/internal/logging"
	"herald/internal/pipeline"
	"herald/internal/processor"
	"herald/internal/push"
	"herald/internal/store"
	"herald/internal/transport"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open notification store", logging.Error(err))
		os.Exit(1)
	}

	client, err := transport.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("connect transport", logging.Error(err))
		os.Exit(1)
	}
	defer client.Close()

	cat := catalog.Builtin()
	producer := transport.NewProducer(client, cfg.Transport.Stream, cfg.Transport.MaxLen)

	emit := emitter.New()
	if err := emit.Configure(producer, cat, daemonSource()); err != nil {
		logger.Error("configure emitter", logging.Error(err))
		os.Exit(1)
	}

	callbacks := []pipeline.Callback{push.LogAdapter(logger)}
	ntfy, err := push.NewNtfyAdapter(cfg, st)
	if err != nil {
		logger.Error("configure ntfy adapter", logging.Error(err))
		os.Exit(1)
	}
	if ntfy != nil {
		callbacks = append(callbacks, ntfy.Callback())
	}

	pctx := &pipeline.Context{
		Catalog:   cat,
		Store:     st,
		Callbacks: callbacks,
		Logger:    logger,
	}
	pipe := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})

	consumer := transport.NewConsumer(client, cfg.Transport.Stream, cfg.Processor.Group, consumerName())
	proc := processor.New(consumer, pipe, logger, processor.Options{
		Block:      time.Duration(cfg.Processor.BlockSeconds) * time.Second,
		ReadCount:  cfg.Processor.ReadCount,
		ErrorRetry: time.Duration(cfg.Processor.ErrorRetrySeconds) * time.Second,
	})

	d, err := daemon.New(cfg, st, logger, proc, emit)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("heraldd shutting down")
}

func daemonSource() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return "heraldd@" + hostname
}

// consumerName must be stable across restarts: crash recovery re-reads the
// pending entries belonging to this name. The flock in the daemon ensures
// at most one instance per machine, so the hostname is enough.
func consumerName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("herald-%s", uuid.NewString()[:8])
	}
	return "heraldd@" + hostname
}
