package handler

import (
	"time"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// presentUser shapes a user for the wire. Email is a per-field authorization
// rule: only the user themself sees it, every other viewer gets "".
func presentUser(user *domain.User, viewer *domain.Session) *userResponse {
	if user == nil {
		return nil
	}
	resp := &userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
	if viewerID, ok := viewer.CurrentUserID(); ok && viewerID == user.ID {
		resp.Email = user.Email
	}
	return resp
}
