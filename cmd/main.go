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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/cli"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/memory"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/metrics"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/openapi"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/postgres"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/bloompizza/internal/app/form"
	"github.com/YelzhanWeb/bloompizza/internal/app/kitchen"
	"github.com/YelzhanWeb/bloompizza/internal/app/order"
	"github.com/YelzhanWeb/bloompizza/internal/app/tracking"
	"github.com/YelzhanWeb/bloompizza/internal/config"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/bloompizza/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/bloompizza/internal/adapter/http"
)

const (
	modeOrderAPI      = "order-api"
	modeKitchen       = "kitchen-worker"
	modeWeb           = "web"
	modeOrderCLI      = "order-cli"
	modeNotifications = "notifications"
)

var defaultPorts = map[string]int{
	modeOrderAPI: 9009,
	modeWeb:      8080,
	modeKitchen:  9101,
}

func main() {
	mode := flag.String("mode", "", "Service mode: order-api, kitchen-worker, web, order-cli, notifications")
	port := flag.Int("port", 0, "HTTP port (defaults: order-api 9009, web 8080, kitchen-worker metrics 9101)")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	workerName := flag.String("worker-name", "", "Kitchen worker name (overrides kitchen.worker_name)")
	prefetch := flag.Int("prefetch", 0, "RabbitMQ prefetch count (overrides kitchen.prefetch)")
	standalone := flag.Bool("standalone", false, "order-api only: keep orders in memory and cook them in-process")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *workerName != "" {
		cfg.Kitchen.WorkerName = *workerName
	}
	if *prefetch > 0 {
		cfg.Kitchen.Prefetch = *prefetch
	}
	if *port == 0 {
		*port = defaultPorts[*mode]
	}

	var lgr logger.Logger
	if *mode == modeOrderCLI {
		lgr = logger.NewStderr(*mode)
	} else {
		lgr = logger.New(*mode)
	}
	defer func() { _ = logger.Sync(lgr) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	switch *mode {
	case modeOrderAPI:
		if *standalone {
			err = runStandalone(ctx, cfg, lgr, m, *port)
		} else {
			err = runOrderAPI(ctx, cfg, lgr, m, *port)
		}
	case modeKitchen:
		err = runKitchenWorker(ctx, cfg, lgr, m, *port)
	case modeWeb:
		err = runWeb(ctx, cfg, lgr, m, *port)
	case modeOrderCLI:
		err = runOrderCLI(ctx, cfg, lgr)
	case modeNotifications:
		err = runNotifications(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("service_failed", "Service stopped with an error", "shutdown", map[string]interface{}{
			"mode": *mode,
		}, err)
		_ = logger.Sync(lgr)
		os.Exit(1)
	}
}

func connectInfrastructure(ctx context.Context, cfg *config.Config, lgr logger.Logger) (postgres.DB, rabbitmq.Connection, error) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mq, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return db, mq, nil
}

// apiHandler mounts the order and tracking routes plus /metrics and wraps
// them in the shared middleware stack.
func apiHandler(ctx context.Context, repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, lgr logger.Logger, m *metrics.Metrics) (http.Handler, error) {
	contract, err := openapi.Load(ctx)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	httpAdapter.NewOrderHandler(order.NewService(repo, publisher, lgr), contract, m, lgr).Register(mux)
	httpAdapter.NewTrackingHandler(tracking.NewService(repo, lgr), lgr).Register(mux)
	mux.Handle("GET /metrics", m.Handler())
	return withMiddleware(mux, lgr, m), nil
}

func withMiddleware(mux *http.ServeMux, lgr logger.Logger, m *metrics.Metrics) http.Handler {
	return httpAdapter.Chain(mux,
		httpAdapter.RecoveryMiddleware(lgr),
		httpAdapter.RequestIDMiddleware(),
		httpAdapter.LoggingMiddleware(lgr),
		httpAdapter.TracingMiddleware("bloompizza.http"),
		httpAdapter.MetricsMiddleware(m),
	)
}

func runOrderAPI(ctx context.Context, cfg *config.Config, lgr logger.Logger, m *metrics.Metrics, port int) error {
	db, mq, err := connectInfrastructure(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()
	defer mq.Close()

	handler, err := apiHandler(ctx, postgres.NewOrderRepository(db), rabbitmq.NewPublisher(mq), lgr, m)
	if err != nil {
		return err
	}

	lgr.Info("service_started", fmt.Sprintf("Order API started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})
	return httpAdapter.Serve(ctx, httpAdapter.NewServer(port, handler), lgr)
}

// runStandalone serves the order API with the in-memory repository and
// broker, and runs a kitchen worker and the notification printer alongside.
func runStandalone(ctx context.Context, cfg *config.Config, lgr logger.Logger, m *metrics.Metrics, port int) error {
	repo := memory.NewOrderRepository()
	broker := memory.NewBroker(64)

	handler, err := apiHandler(ctx, repo, broker, lgr, m)
	if err != nil {
		return err
	}
	kitchenSvc := kitchen.NewService(repo, broker, lgr, cfg.Kitchen.WorkerName, kitchen.WithRecorder(m))
	orders := amqpAdapter.NewOrderHandler(kitchenSvc, lgr)
	notes := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)

	lgr.Info("service_started", fmt.Sprintf("Standalone order API started on port %d", port), "startup", map[string]interface{}{
		"port":        port,
		"worker_name": cfg.Kitchen.WorkerName,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpAdapter.Serve(gctx, httpAdapter.NewServer(port, handler), lgr) })
	g.Go(func() error { return ignoreCanceled(broker.ConsumeOrders(gctx, orders.HandleOrder)) })
	g.Go(func() error { return ignoreCanceled(broker.ConsumeNotifications(gctx, notes.HandleNotification)) })
	return g.Wait()
}

func runKitchenWorker(ctx context.Context, cfg *config.Config, lgr logger.Logger, m *metrics.Metrics, port int) error {
	db, mq, err := connectInfrastructure(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()
	defer mq.Close()

	kitchenSvc := kitchen.NewService(postgres.NewOrderRepository(db), rabbitmq.NewPublisher(mq), lgr,
		cfg.Kitchen.WorkerName, kitchen.WithRecorder(m))
	handler := amqpAdapter.NewOrderHandler(kitchenSvc, lgr)
	consumer := rabbitmq.NewConsumer(mq, cfg.Kitchen.Prefetch, lgr)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())

	lgr.Info("service_started", fmt.Sprintf("Kitchen worker %s started", cfg.Kitchen.WorkerName), "startup", map[string]interface{}{
		"worker_name":  cfg.Kitchen.WorkerName,
		"prefetch":     cfg.Kitchen.Prefetch,
		"metrics_port": port,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpAdapter.Serve(gctx, httpAdapter.NewServer(port, withMiddleware(mux, lgr, m)), lgr)
	})
	g.Go(func() error { return ignoreCanceled(consumer.ConsumeOrders(gctx, handler.HandleOrder)) })
	err = g.Wait()

	lgr.Info("graceful_shutdown", "Kitchen worker stopped", "shutdown", nil)
	return err
}

func runWeb(ctx context.Context, cfg *config.Config, lgr logger.Logger, m *metrics.Metrics, port int) error {
	client := httpAdapter.NewOrderClient(cfg.API.OrderURL(), cfg.API.Timeout, lgr)
	sessions := httpAdapter.NewSessionStore(func() *form.Controller {
		return form.NewController(client, lgr, form.WithRecorder(m))
	}, cfg.Web.SessionIdle, m)

	web, err := httpAdapter.NewWebHandler(sessions, lgr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	web.Register(mux)
	mux.Handle("GET /metrics", m.Handler())

	lgr.Info("service_started", fmt.Sprintf("Web front started on port %d", port), "startup", map[string]interface{}{
		"port":    port,
		"api_url": cfg.API.OrderURL(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpAdapter.Serve(gctx, httpAdapter.NewServer(port, withMiddleware(mux, lgr, m)), lgr)
	})
	g.Go(func() error {
		sessions.Run(gctx, time.Minute)
		return nil
	})
	return g.Wait()
}

func runOrderCLI(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	client := httpAdapter.NewOrderClient(cfg.API.OrderURL(), cfg.API.Timeout, lgr)
	ctrl := form.NewController(client, lgr)
	defer ctrl.Close()

	err := cli.NewOrderPrompt(ctrl, cli.NewSurveyDriver(os.Stdout)).Run(ctx)
	if errors.Is(err, cli.ErrAborted) || errors.Is(err, cli.ErrNotPlaced) {
		return nil
	}
	return err
}

func runNotifications(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	mq, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mq.Close()

	handler := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)
	lgr.Info("service_started", "Notification subscriber started", "startup", nil)

	err = ignoreCanceled(rabbitmq.NewConsumer(mq, 1, lgr).ConsumeNotifications(ctx, handler.HandleNotification))
	lgr.Info("shutdown_initiated", "Notification subscriber stopped", "shutdown", nil)
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
