package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatmesh/pkg/auth"
	"chatmesh/pkg/models"
	"chatmesh/pkg/social"
	"chatmesh/pkg/utils"
)

// RegisterSocial registers the block-list and follow-edge endpoints. Like
// the messaging endpoints they act on behalf of the verified user.
func RegisterSocial(r *mux.Router) {
	r.HandleFunc("/block", listBlocked).Methods(http.MethodGet)
	r.HandleFunc("/block/{userId}", blockUser).Methods(http.MethodPost)
	r.HandleFunc("/block/{userId}", unblockUser).Methods(http.MethodDelete)

	r.HandleFunc("/user/{userId}/follow", followUser).Methods(http.MethodPost)
	r.HandleFunc("/user/{userId}/follow", unfollowUser).Methods(http.MethodDelete)
}

func blockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := social.Block(userID, mux.Vars(r)["userId"]); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "user blocked"})
}

func unblockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := social.Unblock(userID, mux.Vars(r)["userId"]); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "user unblocked"})
}

func listBlocked(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r, defaultPageSize)
	res, err := social.ListBlocked(userID, page, pageSize)
	if err != nil {
		writeErr(w, err)
		return
	}
	users := res.Users
	if users == nil {
		users = []models.UserInfo{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
		"total":   res.Total,
		"page":    page,
	})
}

func followUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := social.Follow(userID, mux.Vars(r)["userId"]); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "following"})
}

func unfollowUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := social.Unfollow(userID, mux.Vars(r)["userId"]); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "message": "unfollowed"})
}
