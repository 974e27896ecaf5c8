package domain

// UpdootKey identifies one user's vote on one post. It is a plain comparable
// struct so two logically equal keys coalesce into a single loader slot.
type UpdootKey struct {
	UserID int64
	PostID int64
}

// Updoot records a single vote. Value is +1 or -1.
type Updoot struct {
	UserID int64 `json:"user_id"`
	PostID int64 `json:"post_id"`
	Value  int   `json:"value"`
}

// Key returns the composite lookup key for this vote.
func (u Updoot) Key() UpdootKey {
	return UpdootKey{UserID: u.UserID, PostID: u.PostID}
}
