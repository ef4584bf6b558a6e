// main.go - The entry point and router setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tidewatch/poseidon/configs"
	"github.com/tidewatch/poseidon/internal/api"
	"github.com/tidewatch/poseidon/internal/bot"
	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/forecast/backends"
	"github.com/tidewatch/poseidon/internal/ratelimit"
	"github.com/tidewatch/poseidon/internal/report"
	"github.com/tidewatch/poseidon/internal/scheduler"
	"github.com/tidewatch/poseidon/internal/session"
	"github.com/tidewatch/poseidon/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Optional MongoDB archive
	if configs.MONGO_URI != "" {
		if err := storage.InitMongoDB(); err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer storage.CloseMongoDB()
	} else {
		log.Println("MONGO_URI not set; report archive disabled")
	}

	// Step 2: Build the extraction backends
	limiter := ratelimit.NewLimiter(configs.GEMINI_RATE_TOKENS, configs.GEMINI_RATE_REFILL)
	marineCache := storage.NewMarineCache(configs.MARINE_CACHE_TTL)
	httpClient := &http.Client{Timeout: configs.MARINE_TIMEOUT}

	vision := backends.NewVisionBackend(configs.GEMINI_API_KEY, configs.VISION_MODEL_NAME, configs.VISION_TIMEOUT, limiter)
	ocr := backends.NewOCRBackend(configs.GEMINI_API_KEY, configs.OCR_MODEL_NAME, configs.OCR_TIMEOUT, configs.ENABLE_IMAGE_PREPROCESSING, configs.MAX_IMAGE_DIMENSION, limiter)
	marine := backends.NewMarineBackend(httpClient, configs.MARINE_TIMEOUT, marineCache)

	engine := forecast.NewEngine([]forecast.Extractor{vision, ocr, marine})

	// Step 3: Sessions, rendering, orchestration
	sessions := session.NewController(configs.ACK_WINDOW)
	handler := bot.NewHandler(sessions, engine, report.NewTextRenderer())

	// Step 4: Marine cache warm-up
	if configs.ENABLE_CACHE_WARM {
		sched := scheduler.New(marine, bot.Spots, configs.WARM_INTERVAL)
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Step 5: Router
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "poseidon",
			"version": "1.0.0",
		})
	})

	api.NewHandlers(handler).RegisterRoutes(router)

	// Step 6: HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   3 * time.Minute, // allow time for the extraction fan-out
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s", configs.PORT)
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/webhook/trigger")
		log.Println("  POST /api/v1/webhook/image")
		log.Println("  POST /api/v1/webhook/text")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
