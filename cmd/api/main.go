package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/hgzoia/mercado-livro/internal/auth"
	"github.com/hgzoia/mercado-livro/internal/books"
	"github.com/hgzoia/mercado-livro/internal/customers"
	"github.com/hgzoia/mercado-livro/internal/messaging"
	"github.com/hgzoia/mercado-livro/internal/purchases"
	"github.com/hgzoia/mercado-livro/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "mercado-livro-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("mercado-livro-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, messaging.TopicPurchaseCreated)
		defer func() { _ = producer.Close() }()
	}

	hasher := auth.NewBcryptHasher()

	bookRepo := books.NewBookRepository(db)
	bookService := books.NewService(bookRepo)
	bookHandler := books.NewHandler(bookService, logger)

	customerRepo := customers.NewCustomerRepository(db)
	customerService := customers.NewService(customerRepo, bookService, hasher, logger)
	customerHandler := customers.NewHandler(customerService, logger)

	var publisher purchases.EventPublisher
	if producer != nil {
		publisher = producer
	}
	purchaseRepo := purchases.NewPurchaseRepository(db)
	purchaseService := purchases.NewService(purchaseRepo, customerService, bookService, publisher, logger)
	purchaseHandler := purchases.NewHandler(purchaseService, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("POST /customers", telemetry.WithHTTPRoute(customerHandler.HandleCreate))
	mux.HandleFunc("GET /customers", telemetry.WithHTTPRoute(customerHandler.HandleList))
	mux.HandleFunc("GET /customers/email-available", telemetry.WithHTTPRoute(customerHandler.HandleEmailAvailable))
	mux.HandleFunc("GET /customers/{id}", telemetry.WithHTTPRoute(customerHandler.HandleGet))
	mux.HandleFunc("PUT /customers/{id}", telemetry.WithHTTPRoute(customerHandler.HandleUpdate))
	mux.HandleFunc("DELETE /customers/{id}", telemetry.WithHTTPRoute(customerHandler.HandleDelete))

	mux.HandleFunc("POST /books", telemetry.WithHTTPRoute(bookHandler.HandleCreate))
	mux.HandleFunc("GET /books", telemetry.WithHTTPRoute(bookHandler.HandleList))
	mux.HandleFunc("GET /books/{id}", telemetry.WithHTTPRoute(bookHandler.HandleGet))
	mux.HandleFunc("PUT /books/{id}", telemetry.WithHTTPRoute(bookHandler.HandleUpdate))
	mux.HandleFunc("DELETE /books/{id}", telemetry.WithHTTPRoute(bookHandler.HandleDelete))

	mux.HandleFunc("POST /purchases", telemetry.WithHTTPRoute(purchaseHandler.HandleCreate))
	mux.HandleFunc("GET /purchases/{id}", telemetry.WithHTTPRoute(purchaseHandler.HandleGet))
	mux.HandleFunc("PUT /purchases/{id}", telemetry.WithHTTPRoute(purchaseHandler.HandleUpdate))
	mux.HandleFunc("PATCH /purchases/{id}/invoice", telemetry.WithHTTPRoute(purchaseHandler.HandleAttachInvoice))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(auth.Middleware(mux), "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
