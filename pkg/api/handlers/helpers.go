// Package handlers holds the HTTP handlers for the user-facing, provisioning
// and admin APIs. Routes are registered per concern onto the shared router.
package handlers

import (
	"net/http"
	"strconv"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/utils"
)

// package-level dependencies, set once at registration time
var (
	svc             *chat.Service
	media           blob.Store
	maxUploadBytes  int64
	defaultPageSize = 20
)

// writeErr maps a service error to its HTTP status and the standard error
// envelope.
func writeErr(w http.ResponseWriter, err error) {
	utils.JSONError(w, apperr.HTTPStatus(err), apperr.MessageOf(err))
}

// pageParams reads ?page= and ?limit= with the given default page size.
func pageParams(r *http.Request, defSize int) (page, pageSize int) {
	page, pageSize = 1, defSize
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// requireRole checks the role stamped by the gateway, writing a 403 and
// returning false when the caller's role is not in the allowed set.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	got := r.Header.Get("X-Role-Name")
	for _, role := range roles {
		if got == role {
			return true
		}
	}
	utils.JSONError(w, http.StatusForbidden, "forbidden")
	return false
}
