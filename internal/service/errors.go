package service

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a business rule violation reported to the caller as is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// ValidationError wraps a rule that input tags cannot express.
func ValidationError(message string) *Error {
	return newError(KindValidation, "VALIDATION_ERROR", message)
}

var (
	ErrInvalidCreds     = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidToken     = newError(KindUnauthenticated, "INVALID_TOKEN", "Invalid or expired token")
	ErrUnknownTokenUser = newError(KindUnauthenticated, "INVALID_TOKEN", "Token user no longer exists")
	ErrEmailTaken       = newError(KindConflict, "EMAIL_TAKEN", "Email is already registered")
	ErrUserNotFound     = newError(KindNotFound, "USER_NOT_FOUND", "User not found")

	ErrProjectNotFound  = newError(KindNotFound, "PROJECT_NOT_FOUND", "Project not found")
	ErrNotProjectOwner  = newError(KindForbidden, "FORBIDDEN", "Only the project owner can perform this action")
	ErrAlreadyMember    = newError(KindConflict, "ALREADY_MEMBER", "Already a member")
	ErrProjectFull      = newError(KindConflict, "PROJECT_FULL", "Project is full")
	ErrNotMember        = newError(KindConflict, "NOT_MEMBER", "Not a member of this project")
	ErrOwnerCannotLeave = newError(KindConflict, "OWNER_CANNOT_LEAVE", "Project owner cannot leave the project")
	ErrCapacityTooLow   = newError(KindConflict, "CAPACITY_TOO_LOW", "maxMembers cannot be lower than the current member count")

	ErrRequestNotFound   = newError(KindNotFound, "REQUEST_NOT_FOUND", "Request not found")
	ErrRequestPending    = newError(KindConflict, "REQUEST_PENDING", "Request already pending")
	ErrRequestNotPending = newError(KindConflict, "REQUEST_NOT_PENDING", "Request has already been answered")
	ErrNotRequester      = newError(KindForbidden, "FORBIDDEN", "Only the requester can withdraw this request")

	ErrNotificationNotFound = newError(KindNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")

	ErrTeamNotFound      = newError(KindNotFound, "TEAM_NOT_FOUND", "Team not found")
	ErrNotTeamLeader     = newError(KindForbidden, "FORBIDDEN", "Only the team leader can perform this action")
	ErrLeaderCannotLeave = newError(KindConflict, "LEADER_CANNOT_LEAVE", "Team leader cannot be removed from the team")
)

// KindOf reports the kind of err, KindInternal for anything unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
