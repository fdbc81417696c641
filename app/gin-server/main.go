package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Anoopkumargithub/gla-zoom/config"
	"github.com/Anoopkumargithub/gla-zoom/internal/api/handlers"
	"github.com/Anoopkumargithub/gla-zoom/internal/api/middleware"
	"github.com/Anoopkumargithub/gla-zoom/internal/api/routes"
	"github.com/Anoopkumargithub/gla-zoom/internal/cache"
	"github.com/Anoopkumargithub/gla-zoom/internal/logger"
	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/detect"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/llm"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/stt"
	mongorepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/mongo"
	pgrepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/postgres"
	"github.com/Anoopkumargithub/gla-zoom/internal/sampler"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/Anoopkumargithub/gla-zoom/internal/storage"
	"github.com/Anoopkumargithub/gla-zoom/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	fmt.Println("MongoDB connected")
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")
	if err := config.PostgresDB.AutoMigrate(&models.EmotionLogEntry{}, &models.SessionReport{}); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Face inference sidecar; both model bundles must load before any
	// session can start video.
	detectorURL := os.Getenv("DETECTOR_URL")
	if detectorURL == "" {
		detectorURL = "http://localhost:7070"
	}
	detector := detect.NewFaceAPI(detectorURL)
	defer detector.Close()

	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := detector.LoadModels(loadCtx); err != nil {
		loadCancel()
		log.Fatalf("Model load error (detection blocked): %v", err)
	}
	loadCancel()
	fmt.Println("Detection models loaded")

	// STT is optional; without it sessions run with speech disabled.
	var speechProvider stt.Provider
	if gs, err := stt.NewGoogleSpeech(ctx); err != nil {
		l.WithError(err).Warn("speech recognition unavailable, transcripts disabled")
	} else {
		speechProvider = gs
		defer gs.Close()
	}

	// Mood summaries are optional.
	var summarizer llm.Provider
	if project := os.Getenv("VERTEX_PROJECT_ID"); project != "" {
		location := os.Getenv("VERTEX_LOCATION")
		if location == "" {
			location = "us-central1"
		}
		vg, err := llm.NewVertexGemini(ctx, project, location, os.Getenv("VERTEX_MODEL"))
		if err != nil {
			l.WithError(err).Warn("vertex init failed, summaries disabled")
		} else {
			summarizer = vg
			defer vg.Close()
		}
	}

	// CSV archive target is optional.
	var archive storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			l.WithError(err).Warn("gcs init failed, csv archive disabled")
		} else {
			archive = up
			defer up.Close()
		}
	}

	// Repositories
	mongoDB := config.MongoDatabase()
	sessionRepo := mongorepo.NewSessionRepo(mongoDB)
	observationRepo := mongorepo.NewObservationRepo(mongoDB)
	logRepo := pgrepo.NewEmotionLogRepo(config.PostgresDB)
	reportRepo := pgrepo.NewReportRepo(config.PostgresDB)

	// Services
	sessionSvc := services.NewSessionService(sessionRepo, speechProvider != nil)
	observationSvc := services.NewObservationService(observationRepo, 24*time.Hour)
	logSvc := services.NewEmotionLogService(logRepo)
	reportSvc := services.NewReportService(logRepo, reportRepo, sessionRepo, summarizer, archive, l)

	redisCache := cache.NewRedisCache(config.RedisClient)
	samplers := sampler.NewRegistry(sampler.DefaultBatchSize)
	defer samplers.Shutdown()

	// Worker pools
	detectionPool := &workers.DetectionWorkerPool{
		Redis:        config.RedisClient,
		Observations: observationSvc,
		EmotionLog:   logSvc,
		Samplers:     samplers,
		Detector:     detector,
		Cache:        redisCache,
		Logger:       l,
	}
	if err := detectionPool.Start(ctx); err != nil {
		log.Fatalf("detection workers: %v", err)
	}

	var speechPool *workers.SpeechWorkerPool
	if speechProvider != nil {
		speechPool = &workers.SpeechWorkerPool{
			Redis:      config.RedisClient,
			EmotionLog: logSvc,
			STT:        speechProvider,
			Logger:     l,
		}
		if err := speechPool.Start(ctx); err != nil {
			log.Fatalf("speech workers: %v", err)
		}
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessionSvc, reportSvc, samplers, speechPool),
		Log:     handlers.NewLogHandler(sessionSvc, logSvc, redisCache),
		WS:      handlers.NewWSHandler(sessionSvc, observationSvc, config.RedisClient),
		Admin:   handlers.NewAdminHandler(observationSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
