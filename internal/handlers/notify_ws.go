// internal/handlers/notify_ws.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/notify"
)

// NotificationsWSHandler upgrades the connection to WebSocket and subscribes
// the authenticated user to live notification pushes. The socket is
// push-only; incoming frames are drained and ignored until the client
// closes.
func NotificationsWSHandler(logger *logrus.Logger, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookieHeader := r.Header.Get("Cookie")
		if !strings.Contains(cookieHeader, "auth_token=") {
			http.Error(w, "missing auth_token", http.StatusUnauthorized)
			return
		}
		userIDStr, err := auth.AuthenticateJWT(extractCookieToken(cookieHeader, "auth_token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id in token", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"notifications"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for user %s: %v", userID, err)
			return
		}

		sub := hub.Subscribe(userID, c)
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"remote":  r.RemoteAddr,
		}).Info("notification subscriber connected")

		defer func() {
			hub.Unsubscribe(sub)
			c.Close(websocket.StatusNormalClosure, "subscription ended")
			logger.WithField("user_id", userID).Info("notification subscriber disconnected")
		}()

		// Drain incoming frames so pings and close handshakes are processed.
		ctx := context.Background()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}
}
