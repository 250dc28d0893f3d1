package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/workin/config"
	deps "github.com/bwise1/workin/internal/debs"
	api "github.com/bwise1/workin/internal/http/rest"
	"github.com/bwise1/workin/internal/presence"
	"github.com/pkg/errors"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	if cfg.JwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	deps := deps.New(cfg)

	svc := presence.NewService(deps.Store, presence.Options{
		Geocoder:       deps.Geocoder,
		Notifier:       deps.WebSocket,
		GeocodeTimeout: cfg.GeocodeTimeout,
	})

	a := &api.API{
		Config:   cfg,
		Deps:     deps,
		Presence: svc,
	}
	go deps.WebSocket.Run()
	go func() {
		log.Printf("Server running on port %v ...", cfg.Port)
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Println("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")
	if err := a.Shutdown(); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	deps.Close()
	log.Println("Database connections closed.")
}
