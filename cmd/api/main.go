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

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/api"
	_ "github.com/bosocmputer/prescription_analyzer/internal/ocr/tesseract"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
	"github.com/bosocmputer/prescription_analyzer/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	cfg := configs.Load()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Optional reference database (stores and drug table)
	if err := storage.InitMongoDB(cfg); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer storage.CloseMongoDB()

	limiter := ratelimit.NewLimiter(cfg.ProviderRequestsPerMinute)

	// Step 2: Initialize the Gin router
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+
			api.HeaderVisionKey+", "+api.HeaderGeminiKey+", "+api.HeaderOpenAIKey+", "+
			api.HeaderAnthropicKey+", "+api.HeaderTranslationKey)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":       "ok",
			"service":      "prescription-analyzer",
			"version":      "1.0.0",
			"ocr_provider": cfg.OCRProvider,
			"llm_provider": cfg.LLMProvider,
		})
	})

	// Step 3: Define the API routes
	api.NewHandler(cfg, limiter).RegisterRoutes(router)

	// Step 4: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second, // uploads of up to MaxUploadMB
		WriteTimeout:   6 * time.Minute,  // OCR, extraction and translation in one request
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s (%s)", cfg.Port, cfg.Providers())
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/analyze-prescription")
		log.Println("  POST /api/v1/sessions/:id/language")
		log.Println("  GET  /api/v1/drugs/search/:name")
		log.Println("  GET  /api/v1/stores/search")
		log.Println("  GET  /api/v1/medicines/:name/overview")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Setup graceful shutdown
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
