// Package api assembles the HTTP surface: the /api REST routes, the
// websocket endpoint and the operational endpoints (health, metrics, docs,
// media). The gateway and telemetry middleware wrap the returned handler.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"chatmesh/pkg/api/handlers"
	"chatmesh/pkg/auth"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/store"
	"chatmesh/pkg/utils"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Chat *chat.Service
	// Blob stores uploaded media; nil disables the upload variants.
	Blob blob.Store
	// MediaDir, when set, is mounted read-only under /media/.
	MediaDir string
	// WS is the realtime endpoint mounted at /ws.
	WS http.Handler
	// MaxUploadMB bounds multipart uploads.
	MaxUploadMB int
	// PageSize is the default page size for list endpoints; zero means 20.
	PageSize int
	// Version is reported by /readyz.
	Version string
}

// Handler builds the full router.
func Handler(d Deps) http.Handler {
	r := mux.NewRouter()

	// user identity is verified once here for the whole REST surface
	apiR := r.PathPrefix("/api").Subrouter()
	apiR.Use(auth.RequireSignedUser)
	handlers.RegisterMessages(apiR, d.Chat, d.Blob, d.MaxUploadMB, d.PageSize)
	handlers.RegisterSocial(apiR)
	handlers.RegisterUsers(apiR)
	handlers.RegisterAssets(apiR)
	handlers.RegisterAdmin(apiR)

	if d.WS != nil {
		r.Handle("/ws", d.WS).Methods(http.MethodGet)
	}
	if d.MediaDir != "" {
		r.PathPrefix("/media/").Handler(
			http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir))))
	}

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyz(d.Version)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs"))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.JSONError(w, http.StatusNotFound, "not found")
	})
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readyz(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !store.Ready() {
			_ = utils.JSONWrite(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if version == "" {
			version = "dev"
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	}
}
