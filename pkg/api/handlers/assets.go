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

// RegisterAssets registers the asset-catalog provisioning endpoints.
// Backend and admin keys only; asset uploads themselves happen elsewhere,
// this store only keeps the metadata messages reference.
func RegisterAssets(r *mux.Router) {
	r.HandleFunc("/assets", registerAsset).Methods(http.MethodPost)
	r.HandleFunc("/assets/{id}", getAsset).Methods(http.MethodGet)
}

func registerAsset(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "backend", "admin") {
		return
	}
	var a models.Asset
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.AssetURL) == "" {
		utils.JSONError(w, http.StatusBadRequest, "name and asset_url are required")
		return
	}
	if a.ID == "" {
		a.ID = utils.GenAssetID()
	}
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().UTC().UnixNano()
	}
	if err := store.SaveAsset(a); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save asset")
		return
	}
	logger.Info("asset_registered", "asset", a.ID, "type", a.AssetType)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"success": true, "asset": a})
}

func getAsset(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "backend", "admin") {
		return
	}
	a, err := store.GetAsset(mux.Vars(r)["id"])
	if err != nil {
		if store.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "asset not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "failed to load asset")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "asset": a})
}
