package store

import (
	"encoding/json"
	"fmt"

	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
)

func userKey(id string) []byte { return []byte("user:" + id) }

// SaveUser stores the social-graph projection for a user.
func SaveUser(u models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := setRaw(userKey(u.ID), data); err != nil {
		logger.Error("save_user_failed", "user", u.ID, "error", err)
		return err
	}
	return nil
}

// GetUser returns the stored user record for an id.
func GetUser(id string) (models.User, error) {
	var u models.User
	v, err := getRaw(userKey(id))
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid stored user %s: %w", id, err)
	}
	return u, nil
}
