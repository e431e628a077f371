package repository

import "errors"

// Errors reported by atomic repository operations when a condition checked
// inside the write no longer holds.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrAlreadyMember     = errors.New("user is already a member")
	ErrNotMember         = errors.New("user is not a member")
	ErrCapacityReached   = errors.New("project is at capacity")
	ErrOwnerCannotLeave  = errors.New("owner cannot leave the project")
	ErrCapacityTooLow    = errors.New("capacity is below the current member count")
	ErrDuplicatePending  = errors.New("a pending request already exists")
	ErrRequestNotPending = errors.New("request is no longer pending")
)
