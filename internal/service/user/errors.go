package user

import "errors"

// Sentinel errors for the user service layer.
var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicate        = errors.New("username or email already taken")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInactive         = errors.New("account is disabled")
)
