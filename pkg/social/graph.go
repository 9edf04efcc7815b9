package social

import (
	"time"

	"chatmesh/pkg/apperr"
	"chatmesh/pkg/logger"
	"chatmesh/pkg/models"
	"chatmesh/pkg/store"
)

func loadPair(actorID, targetID string) (models.User, models.User, error) {
	var zero models.User
	if actorID == targetID {
		return zero, zero, apperr.InvalidArg("cannot target yourself")
	}
	target, err := store.GetUser(targetID)
	if err != nil {
		if store.IsNotFound(err) {
			return zero, zero, apperr.NotFound("user not found")
		}
		return zero, zero, apperr.Upstream("failed to load user", err)
	}
	actor, err := store.GetUser(actorID)
	if err != nil {
		if store.IsNotFound(err) {
			return zero, zero, apperr.NotFound("current user not found")
		}
		return zero, zero, apperr.Upstream("failed to load user", err)
	}
	return actor, target, nil
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Block adds targetID to the actor's block set.
func Block(actorID, targetID string) error {
	actor, _, err := loadPair(actorID, targetID)
	if err != nil {
		return err
	}
	if actor.HasBlocked(targetID) {
		return apperr.New(apperr.CodeAlreadyExists, "user is already blocked")
	}
	actor.Blocked = append(actor.Blocked, targetID)
	actor.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveUser(actor); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	logger.Info("user_blocked", "actor", actorID, "target", targetID)
	return nil
}

// Unblock removes targetID from the actor's block set.
func Unblock(actorID, targetID string) error {
	actor, _, err := loadPair(actorID, targetID)
	if err != nil {
		return err
	}
	if !actor.HasBlocked(targetID) {
		return apperr.InvalidArg("user is not blocked")
	}
	actor.Blocked = remove(actor.Blocked, targetID)
	actor.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveUser(actor); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	logger.Info("user_unblocked", "actor", actorID, "target", targetID)
	return nil
}

// Follow records actor following target, updating both sides of the edge.
func Follow(actorID, targetID string) error {
	actor, target, err := loadPair(actorID, targetID)
	if err != nil {
		return err
	}
	if actor.Follows(targetID) {
		return apperr.New(apperr.CodeAlreadyExists, "already following")
	}
	now := time.Now().UTC().UnixNano()
	actor.Following = append(actor.Following, targetID)
	actor.UpdatedTS = now
	target.Followers = append(target.Followers, actorID)
	target.UpdatedTS = now
	if err := store.SaveUser(actor); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	if err := store.SaveUser(target); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	logger.Info("user_followed", "actor", actorID, "target", targetID)
	return nil
}

// Unfollow removes the follow edge between actor and target.
func Unfollow(actorID, targetID string) error {
	actor, target, err := loadPair(actorID, targetID)
	if err != nil {
		return err
	}
	if !actor.Follows(targetID) {
		return apperr.InvalidArg("not following")
	}
	now := time.Now().UTC().UnixNano()
	actor.Following = remove(actor.Following, targetID)
	actor.UpdatedTS = now
	target.Followers = remove(target.Followers, actorID)
	target.UpdatedTS = now
	if err := store.SaveUser(actor); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	if err := store.SaveUser(target); err != nil {
		return apperr.Upstream("failed to save user", err)
	}
	logger.Info("user_unfollowed", "actor", actorID, "target", targetID)
	return nil
}

// BlockedPage is one page of a user's block list with display info.
type BlockedPage struct {
	Users []models.UserInfo
	Total int
}

// ListBlocked returns a page of the actor's blocked users, joined with
// display info. Records that no longer resolve are skipped.
func ListBlocked(actorID string, page, pageSize int) (BlockedPage, error) {
	var out BlockedPage
	actor, err := store.GetUser(actorID)
	if err != nil {
		if store.IsNotFound(err) {
			return out, apperr.NotFound("user not found")
		}
		return out, apperr.Upstream("failed to load user", err)
	}
	out.Total = len(actor.Blocked)
	start := (page - 1) * pageSize
	if start >= len(actor.Blocked) {
		return out, nil
	}
	end := start + pageSize
	if end > len(actor.Blocked) {
		end = len(actor.Blocked)
	}
	for _, id := range actor.Blocked[start:end] {
		u, err := store.GetUser(id)
		if err != nil {
			continue
		}
		out.Users = append(out.Users, *u.Info())
	}
	return out, nil
}
