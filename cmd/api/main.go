package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/config"
	"taskmanager/internal/database"
	"taskmanager/internal/handlers"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool := database.DefaultPoolOptions()
	pool.MaxOpenConns = cfg.DBMaxOpenConns
	pool.MaxIdleConns = cfg.DBMaxIdleConns
	store, err := database.Connect(startCtx, cfg.DatabaseURI(), cfg.DBSSLMode, pool)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialise database: ", err)
	}
	defer store.Close()

	signer, err := utils.NewSessionSigner(cfg.SecretKey, utils.DefaultSessionTTL)
	if err != nil {
		log.Fatal("Failed to configure sessions: ", err)
	}

	h := handlers.New(store, signer, handlers.Options{
		Monitor:          monitoring.NewService(time.Now(), store),
		MonitoringAPIKey: cfg.MonitoringAPIKey,
	})

	router, err := handlers.NewRouter(h)
	if err != nil {
		log.Fatal("Failed to build router: ", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Task Manager starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
