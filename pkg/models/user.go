package models

// User is the social-graph projection the messaging core needs. Account
// credentials, email and the rest of the profile live with the identity
// service and never enter this store.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfileImg string `json:"profile_img,omitempty"`
	Gender     string `json:"gender,omitempty"`
	// Blocked is directional per-owner: A blocking B does not imply the
	// reverse. Communication checks treat the relation as symmetric.
	Blocked   []string `json:"blocked,omitempty"`
	Followers []string `json:"followers,omitempty"`
	Following []string `json:"following,omitempty"`
	CreatedTS int64    `json:"created_ts,omitempty"`
	UpdatedTS int64    `json:"updated_ts,omitempty"`
}

// HasBlocked reports whether u's block set contains id.
func (u *User) HasBlocked(id string) bool {
	for _, b := range u.Blocked {
		if b == id {
			return true
		}
	}
	return false
}

// Follows reports whether u follows id.
func (u *User) Follows(id string) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// FollowedBy reports whether id follows u.
func (u *User) FollowedBy(id string) bool {
	for _, f := range u.Followers {
		if f == id {
			return true
		}
	}
	return false
}

// UserInfo is the display projection attached to messages and summaries.
type UserInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfileImg string `json:"profile_img,omitempty"`
}

// Info returns the display projection for u.
func (u *User) Info() *UserInfo {
	return &UserInfo{ID: u.ID, Username: u.Username, ProfileImg: u.ProfileImg}
}
