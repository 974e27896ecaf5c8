package domain

import "errors"

var ErrUserNotFound = errors.New("user not found")
var ErrDuplicateUsername = errors.New("username already taken")
var ErrDuplicateEmail = errors.New("email already taken")
var ErrTokenNotFound = errors.New("reset token not found")
var ErrSessionNotFound = errors.New("session not found")
var ErrPostNotFound = errors.New("post not found")
var ErrUpdootNotFound = errors.New("updoot not found")
var ErrInvalidVote = errors.New("vote value must be 1 or -1")

// FieldError is a user-correctable validation failure scoped to a single
// input field. It is returned as response data, never as a Go error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors builds a single-element error list, the common short-circuit
// case where validation stops at the first failing rule.
func FieldErrors(field, message string) []FieldError {
	return []FieldError{{Field: field, Message: message}}
}
