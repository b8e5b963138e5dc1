package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Asus/lattkia_store/config"
	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/notify"
	"github.com/Asus/lattkia_store/internal/server"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"
	"github.com/Asus/lattkia_store/internal/storage"
)

func main() {
	cfg := config.MustLoad()
	slog.Info("Configuration loaded successfully", "env", cfg.Env, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := server.NewHealthServer(cfg.GRPCAddr)
	if cfg.GRPCAddr != "" {
		go func() {
			if err := health.Start(); err != nil {
				slog.Error("health server error", "error", err)
			}
		}()
	}

	stor, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}
	defer stor.Close()

	st, err := state.Open(ctx, cfg.State.Path)
	if err != nil {
		slog.Error("failed to open client state", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	notifier := notify.NewNotifier(
		notify.NewClient(cfg.Telegram.APIURL, cfg.Telegram.Timeout()),
		st, notify.NewFeed(), cfg.Telegram.BotToken, cfg.Telegram.ChatID,
	)

	// с Kafka события идут через топик, без неё доставляются в процессе
	var publisher service.Publisher
	if !cfg.Kafka.Enabled {
		direct := broker.NewDirect(notifier)
		defer direct.Close()
		publisher = direct
	} else {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, notifier)
		defer consumer.Close()
		slog.Info("Kafka consumer initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		go func() {
			if err := consumer.Consume(ctx); err != nil {
				slog.Error("consumer error", "error", err)
			}
		}()
	}

	cache := service.NewOrderCache(stor, cfg.CacheCap)
	if err := cache.Load(ctx); err != nil {
		slog.Error("failed to load cache", "error", err)
		os.Exit(1)
	}
	slog.Info("Cache successfully populated from storage", "orders_loaded", cache.Len())

	srv := server.NewServer(cfg.HTTPAddr, server.Deps{
		Catalog:   service.NewCatalog(stor),
		Orders:    service.NewOrders(stor, cache, publisher, cfg.LowStockThreshold),
		Users:     service.NewUsers(stor, publisher),
		Analytics: service.NewAnalytics(stor),
		State:     st,
		Notifier:  notifier,
	})
	health.SetServing()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown http server", "error", err)
		}
		health.Stop()
	}()

	if err := srv.Start(); err != nil {
		slog.Error("http server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	seed, err := storage.DefaultSeed()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver != "postgres" {
		slog.Info("Using in-memory storage with demo catalog")
		return storage.NewMemory(seed), nil
	}

	pg, err := storage.NewPostgres(ctx, storage.PostgresConfig{
		Host:     cfg.Storage.Host,
		Port:     cfg.Storage.Port,
		User:     cfg.Storage.DBUser,
		Password: cfg.Storage.DBPassword,
		DBName:   cfg.Storage.DBName,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully connected to DB", "host", cfg.Storage.Host, "port", cfg.Storage.Port, "dbname", cfg.Storage.DBName)

	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	if err := pg.Bootstrap(ctx, seed); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
