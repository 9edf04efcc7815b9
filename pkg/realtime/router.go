package realtime

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"chatmesh/pkg/auth"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/logger"
	"chatmesh/pkg/telemetry"
	"chatmesh/pkg/utils"
)

// Router upgrades authenticated requests to websocket sessions and routes
// their events through the chat service.
type Router struct {
	hub      Registry
	chat     *chat.Service
	upgrader websocket.Upgrader
}

// NewRouter builds a Router on the given registry. allowedOrigins follows
// the gateway CORS list; "*" disables the origin check.
func NewRouter(hub Registry, svc *chat.Service, allowedOrigins []string) *Router {
	return &Router{
		hub:  hub,
		chat: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser client
				}
				for _, a := range allowedOrigins {
					if a == "*" || strings.EqualFold(a, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// ServeHTTP handles GET /ws. Identity comes from the signed user headers,
// or from "user"/"sig" query parameters for browser websocket clients that
// cannot set headers. The gateway has already checked the API key.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	sig := strings.TrimSpace(r.Header.Get("X-User-Signature"))
	if userID == "" {
		userID = strings.TrimSpace(r.URL.Query().Get("user"))
		sig = strings.TrimSpace(r.URL.Query().Get("sig"))
	}
	if !auth.VerifyUserSig(userID, sig) {
		utils.JSONError(w, http.StatusUnauthorized, "missing or invalid user identity")
		return
	}

	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		logger.Warn("ws_upgrade_failed", "user", userID, "error", err)
		return
	}
	c := &Client{
		router: rt,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	telemetry.WSSessions.Inc()
	logger.Info("ws_connected", "user", userID, "remote", r.RemoteAddr)
	go c.writePump()
	go c.readPump()
}
