package utils

import "github.com/google/uuid"

// GenMessageID returns a new message id.
func GenMessageID() string { return "msg-" + uuid.NewString() }

// GenUserID returns a new user id.
func GenUserID() string { return "usr-" + uuid.NewString() }

// GenAssetID returns a new asset id.
func GenAssetID() string { return "ast-" + uuid.NewString() }
