package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/fanaka-furniture/checkout/internal/application/cart"
	appcheckout "github.com/fanaka-furniture/checkout/internal/application/checkout"
	"github.com/fanaka-furniture/checkout/internal/application/notification"
	"github.com/fanaka-furniture/checkout/internal/config"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/auth"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/bus"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/gateway"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/id"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/memory"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/observability/oteltrace"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/observability/prometrics"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/observability/telemetry"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/observability/zaplogger"
	"github.com/fanaka-furniture/checkout/internal/observability"
	httppresentation "github.com/fanaka-furniture/checkout/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(getenvDefault("CONFIG_DIR", "./configs"), getenvDefault("ENV", "dev"))
	if err != nil {
		panic(err)
	}

	logger := zaplogger.New(
		observability.F("service", cfg.App.Name),
		observability.F("env", cfg.App.Env),
	)
	registry := prometrics.New("", "checkout")

	counters := map[string]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(observability.MUsecaseRequests,
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: registry.Counter(observability.MHTTPRequests,
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MPaymentAttempts: registry.Counter(observability.MPaymentAttempts,
			"Payment attempts by terminal status.", "status"),
		observability.MPaymentPolls: registry.Counter(observability.MPaymentPolls,
			"Gateway status checks performed across all attempts."),
		observability.MGatewayRequests: registry.Counter(observability.MGatewayRequests,
			"Requests to the remote payment gateway.", "op", "outcome"),
	}
	histograms := map[string]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(observability.MUsecaseDuration,
			"Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration: registry.Histogram(observability.MHTTPRequestDuration,
			"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
	}
	tel := telemetry.New(oteltrace.New(cfg.App.Name), logger, counters, histograms)

	eventBus := bus.New(logger)
	eventBus.Start(context.Background())
	defer eventBus.Stop(context.Background())

	cartStore := memory.NewCartStore()
	orderStore := memory.NewOrderStore()
	attemptStore := memory.NewAttemptStore()

	cartService := appcart.NewService(cartStore, logger)
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, tel)
	tokens := auth.NewStaticTokenSource(cfg.Gateway.AuthToken)

	checkoutService := appcheckout.NewService(
		gatewayClient,
		tokens,
		cartService,
		orderStore,
		attemptStore,
		eventBus,
		id.NewUUIDGenerator(),
		appcheckout.PollerConfig{
			GraceDelay:      cfg.Poller.GraceDelay,
			PollInterval:    cfg.Poller.PollInterval,
			MaxPolls:        cfg.Poller.MaxPolls,
			OptimisticDelay: cfg.Poller.OptimisticDelay,
			NoHandlePolicy:  appcheckout.NoHandlePolicy(cfg.Poller.NoHandlePolicy),
		},
		tel,
	)

	notifier := notification.New(eventBus, logger)
	notifier.Start()

	handler := httppresentation.NewHandler(checkoutService, cartService, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	// Stop pollers first so no terminal callbacks race the shutdown.
	checkoutService.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
