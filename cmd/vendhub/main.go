package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmateus/vendhub/internal/catalog"
	"github.com/dmateus/vendhub/internal/events"
	"github.com/dmateus/vendhub/internal/hours"
	h "github.com/dmateus/vendhub/internal/http"
	"github.com/dmateus/vendhub/internal/notify"
	"github.com/dmateus/vendhub/internal/order"
	"github.com/dmateus/vendhub/internal/registry"
	"github.com/dmateus/vendhub/internal/stock"
)

type Config struct {
	HTTPPort         string
	ProcessorBaseURL string
	ProcessorKey     string
	RedisAddr        string
	RedisPassword    string
	KafkaBrokers     string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	OperatorEmail    string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

func loadConfig() *Config {
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		log.Fatalf("invalid SMTP_PORT: %v", err)
	}
	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		ProcessorBaseURL: getEnv("PROCESSOR_BASE_URL", "https://api.stripe.com"),
		ProcessorKey:     getEnv("PROCESSOR_SECRET_KEY", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", ""),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         smtpPort,
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		OperatorEmail:    getEnv("OPERATOR_EMAIL", ""),
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	if cfg.ProcessorKey == "" {
		log.Printf("PROCESSOR_SECRET_KEY not set; payment and catalog calls will fail until configured")
	}
	reg := registry.NewClient(cfg.ProcessorBaseURL, cfg.ProcessorKey)

	// Redis is optional; without it the catalog reader hits the registry on
	// every request.
	var cache *catalog.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Redis ping succeeded")
		cache = catalog.NewCache(redisClient)
	}

	catalogSvc := catalog.NewService(reg, cache)
	orderSvc := order.NewService(reg)
	reconciler := stock.NewReconciler(reg)

	smtp := notify.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	operator := cfg.OperatorEmail
	if operator == "" {
		operator = cfg.SMTPUser
	}
	notifier := notify.NewNotifier(smtp, cfg.SMTPUser, operator)

	// Kafka is optional; a nil publisher drops settlement events.
	var publisher *events.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = events.NewPublisher(strings.Split(cfg.KafkaBrokers, ",")...)
		defer publisher.Close()
		log.Printf("settlement events enabled on %s", cfg.KafkaBrokers)
	}

	catalogHandler := h.NewCatalogHandler(catalogSvc, cfg.RequestTimeout)
	intentHandler := h.NewIntentHandler(orderSvc, cfg.RequestTimeout)
	stockHandler := h.NewStockHandler(reconciler, cfg.RequestTimeout)
	notifyHandler := h.NewNotifyHandler(notifier, publisher, cfg.RequestTimeout)

	// Log delivery-window transitions so kiosk state is visible in the logs.
	watcher := hours.NewWatcher()
	defer watcher.Stop()
	go func() {
		for open := range watcher.C {
			if open {
				log.Printf("delivery window open")
			} else {
				log.Printf("delivery window closed")
			}
		}
	}()

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/catalog", catalogHandler.Get)
	r.Post("/intent", intentHandler.Create)
	r.Post("/reconcile-stock", stockHandler.Reconcile)
	r.Post("/notify", notifyHandler.Send)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "vendhub"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("vendhub starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
