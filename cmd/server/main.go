package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report-service/config"
	"report-service/internal/api"
	"report-service/internal/broker"
	"report-service/internal/capture"
	"report-service/internal/export"
	"report-service/internal/redisclient"
	"report-service/internal/service"
	"report-service/internal/store"
	"report-service/internal/upstream"
	"report-service/internal/util"
	"report-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting report service")

	tp, err := util.InitTracer("report-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicExport)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewExportEventPublisher(producer)

	adminClient := upstream.NewClient(cfg.Upstream.BaseURL, upstream.StaticToken(cfg.Upstream.Token), cfg.Upstream.Timeout)
	aggregator := service.NewAggregator(adminClient, cfg.Upstream.Timeout)
	reportService := service.NewReportService(aggregator)

	renderer := capture.NewHTTPRenderer(cfg.Renderer.URL, cfg.Renderer.Timeout)
	sink := export.NewFileSink(cfg.Export.OutputDir)
	exportController := export.NewController(renderer, sink, db, eventPublisher, redisClient, cfg.Export.LockTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	exportConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicExport, cfg.Kafka.ConsumerGroup)
	exportWorker := worker.NewExportWorker(exportConsumer, reportService, exportController)
	go func() {
		if err := exportWorker.Start(workerCtx); err != nil {
			log.Printf("Export worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(reportService, exportController, db, redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	exportWorker.Stop()

	log.Println("Server exited")
}
