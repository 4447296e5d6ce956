package httpapi

import (
	"net/http"
	"time"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

func (s *Server) AdminMetrics(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, services.CaptureMetrics(s.Config.UploadStoragePath))
}

// MetricsSocket streams system samples to the admin console. Browsers cannot
// set an Authorization header on a websocket, so the token rides in the
// query string. Sampling is driven by the connection itself.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	_, _, role, ok := identityFromToken(s.Tokens, tokenStr)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "Admin access required")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// Reader goroutine only detects the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	if err := conn.WriteJSON(services.CaptureMetrics(s.Config.UploadStoragePath)); err != nil {
		return
	}
	for range ticker.C {
		if err := conn.WriteJSON(services.CaptureMetrics(s.Config.UploadStoragePath)); err != nil {
			return
		}
	}
}
