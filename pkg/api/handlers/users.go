package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
	"chatmesh/pkg/store"
	"chatmesh/pkg/utils"
)

// RegisterUsers registers the provisioning endpoints the identity service
// uses to push social-graph projections into this store. Backend and admin
// keys only.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", upsertUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
}

func upsertUser(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "backend", "admin") {
		return
	}
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(u.Username) == "" {
		utils.JSONError(w, http.StatusBadRequest, "username is required")
		return
	}
	now := time.Now().UTC().UnixNano()
	if u.ID == "" {
		u.ID = utils.GenUserID()
		u.CreatedTS = now
	} else if prev, err := store.GetUser(u.ID); err == nil {
		// keep the graph edges the identity service does not own
		u.CreatedTS = prev.CreatedTS
		if u.Blocked == nil {
			u.Blocked = prev.Blocked
		}
		if u.Followers == nil {
			u.Followers = prev.Followers
		}
		if u.Following == nil {
			u.Following = prev.Following
		}
	} else {
		u.CreatedTS = now
	}
	u.UpdatedTS = now
	if err := store.SaveUser(u); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	logger.Info("user_upserted", "user", u.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"success": true, "user": u})
}

func getUser(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "backend", "admin") {
		return
	}
	u, err := store.GetUser(mux.Vars(r)["id"])
	if err != nil {
		if store.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "user": u})
}
