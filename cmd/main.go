package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/postgres"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/rabbitmq"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/redis"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/token"
	"github.com/syslogsitsolutions/menulogs/internal/adapter/ws"
	"github.com/syslogsitsolutions/menulogs/internal/app/lifecycle"
	"github.com/syslogsitsolutions/menulogs/internal/app/realtime"
	"github.com/syslogsitsolutions/menulogs/internal/config"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"

	httpAdapter "github.com/syslogsitsolutions/menulogs/internal/adapter/http"
)

func main() {
	defaultConfig := "config.yaml"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		defaultConfig = env
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lgr := logger.New("menulogs", cfg.Server.DevMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Redis bridges events across instances. Without it the node
	// still runs, serving only its own connections.
	var broker interfaces.Broker
	redisBroker, err := redis.Connect(ctx, cfg.Redis, lgr)
	if err != nil {
		lgr.Error("redis_unavailable", "Running single-instance, events will not cross nodes", "startup", map[string]interface{}{
			"addr": cfg.Redis.Addr(),
		}, err)
	} else {
		broker = redisBroker
		defer redisBroker.Close()
		lgr.Info("redis_connected", "Connected to Redis broker", "startup", map[string]interface{}{
			"channel": cfg.Redis.Channel,
		})
	}

	// RabbitMQ carries owner notifications; optional as well.
	var notifier interfaces.NotificationSink
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		lgr.Error("rabbitmq_unavailable", "Owner notifications disabled", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		}, err)
	} else {
		defer mqConn.Close()
		notifier = rabbitmq.NewNotifier(mqConn, cfg.RabbitMQ.Exchange)
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"exchange": cfg.RabbitMQ.Exchange,
		})
	}

	taxRate, err := cfg.Orders.TaxRateDecimal()
	if err != nil {
		log.Fatalf("Invalid orders config: %v", err)
	}

	// Stores
	orderStore := postgres.NewOrderStore(db)
	tableStore := postgres.NewTableStore(db)
	locationStore := postgres.NewLocationStore(db)

	// Realtime router doubles as the lifecycle engine's event
	// publisher: every state change fans out to connected rooms and,
	// through the broker, to other instances.
	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry, locationStore, broker, lgr)

	engine := lifecycle.NewService(orderStore, tableStore, locationStore, router, notifier, lgr, taxRate)

	verifier := token.NewVerifier(cfg.Auth.Secret)

	// HTTP surface
	orderHandler := httpAdapter.NewOrderHandler(engine, lgr, cfg.Server.DevMode)
	tableHandler := httpAdapter.NewTableHandler(engine, lgr, cfg.Server.DevMode)
	staffHandler := httpAdapter.NewStaffHandler(router, lgr, cfg.Server.DevMode)
	systemHandler := httpAdapter.NewSystemHandler(registry)
	wsHandler := ws.NewHandler(router, verifier, lgr, cfg.Server.HandshakeTimeoutDuration())

	apiMux := http.NewServeMux()
	orderHandler.Register(apiMux)
	tableHandler.Register(apiMux)
	staffHandler.Register(apiMux)

	mux := http.NewServeMux()
	systemHandler.Register(mux)
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", httpAdapter.AuthMiddleware(verifier)(apiMux))

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lgr.Info("server_started", "HTTP server listening", "startup", map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := router.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("server_stopping", "Shutting down", "shutdown", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lgr.Error("server_error", "Server exited with error", "shutdown", nil, err)
	}
	lgr.Info("server_stopped", "Shutdown complete", "shutdown", nil)
}
