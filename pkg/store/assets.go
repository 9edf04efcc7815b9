package store

import (
	"encoding/json"
	"fmt"

	"chatmesh/pkg/models"
)

func assetKey(id string) []byte { return []byte("asset:" + id) }

// SaveAsset stores an asset record.
func SaveAsset(a models.Asset) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}
	return setRaw(assetKey(a.ID), data)
}

// GetAsset returns the stored asset record for an id.
func GetAsset(id string) (models.Asset, error) {
	var a models.Asset
	v, err := getRaw(assetKey(id))
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(v, &a); err != nil {
		return a, fmt.Errorf("invalid stored asset %s: %w", id, err)
	}
	return a, nil
}
