package models

type Dimensions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Asset is a shareable media record (emoji, sticker, background). Assets are
// uploaded and managed by an external service; the messaging core only reads
// them to build asset-type messages.
type Asset struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AssetType   string      `json:"asset_type"`
	AssetURL    string      `json:"asset_url"`
	Tags        []string    `json:"tags,omitempty"`
	SizeInBytes int64       `json:"size_in_bytes,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Format      string      `json:"format,omitempty"`
	// UploadedBy is empty for system assets.
	UploadedBy string `json:"uploaded_by,omitempty"`
	IsPublic   bool   `json:"is_public"`
	CreatedTS  int64  `json:"created_ts,omitempty"`
}

// AccessibleBy reports whether userID may reference this asset in a message.
func (a *Asset) AccessibleBy(userID string) bool {
	return a.IsPublic || (a.UploadedBy != "" && a.UploadedBy == userID)
}

// Details returns the denormalized snapshot embedded in messages.
func (a *Asset) Details() *AssetDetails {
	return &AssetDetails{
		AssetID:    a.ID,
		AssetType:  a.AssetType,
		AssetName:  a.Name,
		Dimensions: a.Dimensions,
		Format:     a.Format,
		Tags:       a.Tags,
	}
}
