package social

import (
	"chatmesh/pkg/apperr"
	"chatmesh/pkg/models"
	"chatmesh/pkg/store"
)

// CheckCommunicationAllowed verifies that nothing forbids a message from
// sender to receiver. A block by either party forbids both directions. The
// receiver must exist; a missing sender record is tolerated and treated as
// an empty block set. Pure read, no side effects.
func CheckCommunicationAllowed(senderID, receiverID string) error {
	receiver, err := store.GetUser(receiverID)
	if err != nil {
		if store.IsNotFound(err) {
			return apperr.NotFound("receiver not found")
		}
		return apperr.Upstream("failed to load receiver", err)
	}
	if receiver.HasBlocked(senderID) {
		return apperr.Blocked("communication with this user is not allowed")
	}
	sender, err := store.GetUser(senderID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil
		}
		return apperr.Upstream("failed to load sender", err)
	}
	if sender.HasBlocked(receiverID) {
		return apperr.Blocked("communication with this user is not allowed")
	}
	return nil
}

// Mutual reports whether a and b follow each other.
func Mutual(a *models.User, bID string) bool {
	return a.Follows(bID) && a.FollowedBy(bID)
}
