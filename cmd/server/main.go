// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/faaizHadaina/jobi-socket/internal/config"
	"github.com/faaizHadaina/jobi-socket/internal/game"
	"github.com/faaizHadaina/jobi-socket/internal/handlers"
	"github.com/faaizHadaina/jobi-socket/internal/models"
	"github.com/faaizHadaina/jobi-socket/internal/room"
	"github.com/faaizHadaina/jobi-socket/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rnd := game.NewRandom()
	rooms := room.NewRegistry(func() models.GameState { return game.InitialState(rnd) }, room.NewClock())
	hub := handlers.NewHub(logger)

	// Session events are optional; without Redis the server runs purely in memory.
	var recorder session.Recorder
	if cfg.Redis.Enabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer rdb.Close()
		recorder = cache.NewPublisher(rdb, cfg.Redis.Queue)
		logger.Infof("Recording session events to Redis queue %s", cfg.Redis.Queue)
	}

	router := session.NewRouter(rooms, hub, recorder, logger)

	reaper := room.NewReaper(rooms, cfg.RoomIdleTimeout, cfg.RoomReapInterval, room.NewClock(), logger, hub.Release)
	go reaper.Run(ctx)

	server := &http.Server{
		Handler:           handlers.NewRouter(logger, hub, router, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("Running on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to serve: %v", err)
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	// Hijacked websockets are not closed by Shutdown.
	hub.CloseAll("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("server shutdown: %v", err)
	}
}
