package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocalia/voicedemo/internal/infra/database"
	"github.com/vocalia/voicedemo/internal/infra/http/handlers"
	"github.com/vocalia/voicedemo/internal/infra/http/middleware"
	"github.com/vocalia/voicedemo/internal/infra/integration/bland"
	"github.com/vocalia/voicedemo/internal/infra/mail"
	"github.com/vocalia/voicedemo/internal/infra/queue"
	"github.com/vocalia/voicedemo/internal/logger"
	"github.com/vocalia/voicedemo/internal/poller"
	"github.com/vocalia/voicedemo/internal/usecase"
)

func main() {
	godotenv.Load()

	appLog := logger.New()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)

	// 2. Gateways e Adapters
	voiceGateway := bland.NewClient(os.Getenv("BLAND_API_KEY"), os.Getenv("BLAND_API_URL"))
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("SALES_NOTIFY_EMAIL"),
	)

	// 3. Worker (consome a fila de desfechos e avisa o comercial)
	worker := queue.NewWorker(rabbitMQ.Ch, mailSender, appLog)
	go worker.Start(queue.QueueName)

	// 4. Tracker de ligação (polling destacado)
	pollCfg := poller.DefaultConfig()
	pollCfg.MaxAttempts = envInt("POLL_MAX_ATTEMPTS", pollCfg.MaxAttempts)
	pollCfg.Interval = envDuration("POLL_INTERVAL", pollCfg.Interval)
	pollCfg.AnalysisAttempts = envInt("ANALYSIS_MAX_ATTEMPTS", pollCfg.AnalysisAttempts)
	tracker := poller.New(voiceGateway, leadRepo, producer, appLog, pollCfg)

	// 5. UseCases
	startCallUC := usecase.NewStartCallUseCase(leadRepo, voiceGateway, tracker, appLog)

	// 6. Handlers
	callHandler := handlers.NewCallHandler(startCallUC)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/call", callHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	appLog.WithField("port", port).Info("voice demo API no ar")
	if err := http.ListenAndServe(port, r); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
