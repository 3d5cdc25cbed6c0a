package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greengrain/greengrain/internal/services/ingest"
	"github.com/greengrain/greengrain/internal/services/monitor"
	"github.com/greengrain/greengrain/internal/session"
	"github.com/greengrain/greengrain/pkg/firebase"
	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("monitor config: %v", err)
	}

	store := session.NewStore()

	gateway := firebase.NewClient(firebase.Config{
		BaseURL:         cfg.FirebaseURL,
		Auth:            cfg.FirebaseAuth,
		Timeout:         cfg.FirebaseTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpenFor:  cfg.BreakerOpenFor,
	})
	ctrl := monitor.NewController(store, gateway)

	keyFor := func(userID string) string { return userID }
	resolver := ingest.UserKey(cfg.SharedKey)
	if cfg.SessionMode == "shared" {
		keyFor = func(string) string { return cfg.SharedKey }
		resolver = ingest.FixedKey(cfg.SharedKey)
	}

	// Ingestion source: one long-lived background task feeding the store
	// through Record only.
	var mqClient mqtt.Client
	switch cfg.IngestMode {
	case "push":
		mqCfg := &rabbitmq.Config{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPassword,
			ClientID: cfg.MQTTClientID,
		}
		mqClient, err = rabbitmq.NewConn(mqCfg, ctx)
		if err != nil {
			log.Fatalf("mqtt connect failed: %v", err)
		}
		consumer := rabbitmq.NewConsumer(mqClient, cfg.ReadingTopic, nil)
		adapter := ingest.NewPushAdapter(consumer, store, resolver)
		go adapter.Start(ctx)
	case "poll":
		poller := ingest.NewPoller(cfg.DeviceURL, store, resolver, cfg.PollInterval)
		go poller.Run(ctx)
	case "http":
		// readings arrive only through POST /update-monitoring
	}

	ready := func() bool {
		if cfg.IngestMode == "push" {
			return mqClient != nil && mqClient.IsConnectionOpen()
		}
		return true
	}

	mux := monitor.NewHTTPMux(ctrl, keyFor, ready)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("monitor HTTP listening on :%s (session=%s ingest=%s)", cfg.Port, cfg.SessionMode, cfg.IngestMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("monitor: shutdown complete")
}
