// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/connections"
	"github.com/campuslink/campuslink/internal/database"
	"github.com/campuslink/campuslink/internal/handlers"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/campuslink/campuslink/internal/notify"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	initAuth(logger)

	pool, err := database.Connect(context.Background())
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	// Notifications are best-effort: without Redis the service still runs,
	// events just go to the log instead of the delivery queue.
	var notifier notify.Notifier
	if rdb, err := notify.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, notifications will be log-only: %v", err)
		notifier = &notify.LogNotifier{Logger: logger}
	} else {
		defer rdb.Close()
		notifier = notify.NewRedisNotifier(rdb)
	}

	store := database.NewStore(pool)
	identity := database.NewIdentity(pool)
	svc := connections.NewService(store, identity, notifier, logger)

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	// connection endpoints
	mux.Handle("/connections/request", logged(handlers.SendConnectionHandler(svc)))
	mux.Handle("/connections/accept", logged(handlers.AcceptConnectionHandler(svc)))
	mux.Handle("/connections/reject", logged(handlers.RejectConnectionHandler(svc)))
	mux.Handle("/connections/list", logged(handlers.ListConnectionsHandler(svc)))
	mux.Handle("/connections/requests", logged(handlers.ListRequestsHandler(svc)))
	mux.Handle("/connections/remove", logged(handlers.RemoveConnectionHandler(svc)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// initAuth loads the shared ed25519 key pair if configured, otherwise
// generates an ephemeral one. AUTH_PRIVATE_KEY_PATH / AUTH_PUBLIC_KEY_PATH
// must point to the same files the notifier worker uses.
func initAuth(logger *logrus.Logger) {
	privPath := os.Getenv("AUTH_PRIVATE_KEY_PATH")
	pubPath := os.Getenv("AUTH_PUBLIC_KEY_PATH")
	if privPath != "" && pubPath != "" {
		if err := auth.InitFromPath(privPath, pubPath); err != nil {
			log.Fatalf("failed to load auth keys: %v", err)
		}
		return
	}
	logger.Warn("no auth key paths configured, using ephemeral keys")
	auth.Init()
}
