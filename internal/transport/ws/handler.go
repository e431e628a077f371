package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/unicollab/unicollab/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, authn middleware.Authenticator, allowedOrigins []string, log *slog.Logger) http.HandlerFunc {
	opts := acceptOptions(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			middleware.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token")
			return
		}

		user, err := authn.Authenticate(r.Context(), token)
		if err != nil {
			middleware.AuthFailed(w, r, log, err)
			return
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			log.Warn("ws accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn, user.ID, log)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}
}

// acceptOptions turns configured CORS origins into websocket host patterns.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		} else {
			hosts = append(hosts, origin)
		}
	}
	return &websocket.AcceptOptions{OriginPatterns: hosts}
}
