// cmd/notifier/main.go is the asynchronous notification delivery worker: it
// pops queued events from Redis, persists them to the notifications table,
// and pushes them to connected websocket subscribers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/database"
	"github.com/campuslink/campuslink/internal/handlers"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/campuslink/campuslink/internal/notify"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	privPath := os.Getenv("AUTH_PRIVATE_KEY_PATH")
	pubPath := os.Getenv("AUTH_PUBLIC_KEY_PATH")
	if privPath != "" && pubPath != "" {
		if err := auth.InitFromPath(privPath, pubPath); err != nil {
			log.Fatalf("failed to load auth keys: %v", err)
		}
	} else {
		// Ephemeral keys only verify tokens this process issued itself;
		// fine for local runs, wrong for production.
		logger.Warn("no auth key paths configured, using ephemeral keys")
		auth.Init()
	}

	pool, err := database.Connect(context.Background())
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	rdb, err := notify.ConnectRedis()
	if err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}
	defer rdb.Close()

	hub := notify.NewHub(logger)
	worker := notify.NewWorker(rdb, pool, hub, logger)
	go worker.Run()

	mux := http.NewServeMux()
	mux.Handle("/notifications/ws", middleware.LogMiddleware(logger)(
		handlers.NotificationsWSHandler(logger, hub),
	))

	addr := ":8081"
	if port := os.Getenv("NOTIFIER_PORT"); port != "" {
		addr = ":" + port
	}

	go func() {
		logger.Infof("notifier listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("notifier server exited: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	worker.Stop()
	logger.Info("notifier stopped")
}
