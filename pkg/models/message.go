package models

// MessageType tags the payload variant carried by a message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVoice MessageType = "voice"
	TypeAsset MessageType = "asset"
)

// Valid reports whether t is one of the known variants.
func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeVoice, TypeAsset:
		return true
	}
	return false
}

// Media reports whether the variant requires a media URL.
func (t MessageType) Media() bool {
	return t == TypeImage || t == TypeVoice || t == TypeAsset
}

// AssetDetails is the denormalized asset snapshot embedded in asset-type
// messages so clients can render without a second lookup.
type AssetDetails struct {
	AssetID    string      `json:"asset_id"`
	AssetType  string      `json:"asset_type,omitempty"`
	AssetName  string      `json:"asset_name,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Format     string      `json:"format,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
}

type Message struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	// Content is the text body, or for media variants a human-readable
	// placeholder (voice) / the media URL (image) / the asset name.
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type"`
	MediaURL    string      `json:"media_url,omitempty"`
	// MediaPublicID is the blob-store handle used for best-effort removal
	// when the message is deleted.
	MediaPublicID string        `json:"media_public_id,omitempty"`
	AssetDetails  *AssetDetails `json:"asset_details,omitempty"`

	IsRead bool  `json:"is_read"`
	ReadTS int64 `json:"read_ts,omitempty"`
	// Deleted messages are retained and flagged; DeletedTS records when (ns).
	IsDeleted bool  `json:"is_deleted,omitempty"`
	DeletedTS int64 `json:"deleted_ts,omitempty"`

	CreatedTS int64 `json:"created_ts"`
	UpdatedTS int64 `json:"updated_ts,omitempty"`

	// Display projections of the two participants, populated on responses
	// and broadcasts, never persisted.
	SenderInfo   *UserInfo `json:"sender_info,omitempty"`
	ReceiverInfo *UserInfo `json:"receiver_info,omitempty"`
}

// ConversationSummary is the inbox-list aggregation of one counterpart plus
// last-message metadata.
type ConversationSummary struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	ProfileImg      string `json:"profile_img,omitempty"`
	LastMessageDate int64  `json:"last_message_date,omitempty"`
	MessageCount    int    `json:"message_count"`
	LastMessage     string `json:"last_message,omitempty"`
}
