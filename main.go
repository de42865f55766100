package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"codecollab/config/database"
	"codecollab/engine"
	collab "codecollab/internal/collab"
	"codecollab/internal/collab/repository"
	"codecollab/internal/collab/service"
	"codecollab/pkg/logger"
	"codecollab/router"
	"codecollab/socket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	logger.Init()
	defer logger.Log.Sync()

	db := database.Connect()
	defer db.Close()

	// The engine is the single authoritative in-memory core; everything
	// else (transport, persistence, REST) hangs off it.
	eng := engine.New()
	eng.Start()

	repo := repository.NewCollabRepository(db)
	svc := service.NewCollabService(repo, eng)
	hub := socket.NewHub(eng, svc)

	stopSnapshots := make(chan struct{})
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		svc.SnapshotWorker(stopSnapshots)
	}()

	handler := router.Setup(hub, collab.NewHandler(svc))

	srv := &http.Server{Addr: ":8080", Handler: handler}
	go func() {
		logger.Sugar.Info("Collaboration backend listening on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	// Shut down in dependency order: stop accepting traffic, flush the
	// broadcast buffers, then persist the final snapshots.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar.Errorf("Server shutdown: %v", err)
	}
	eng.Stop()
	close(stopSnapshots)
	workers.Wait()
}
