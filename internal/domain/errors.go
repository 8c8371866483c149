package domain

import "errors"

var (
	ErrScoreOutOfRange  = errors.New("score out of range")
	ErrLinkConflict     = errors.New("role or emoji already linked")
	ErrLinkNotFound     = errors.New("reaction link not found")
	ErrRoleNotLinked    = errors.New("role has no reaction link")
	ErrPanelNotFound    = errors.New("reaction panel not found")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrAlreadyVerified  = errors.New("member already verified")

	// Collaborator failure modes surfaced by RoleDirectory and
	// MessageChannel implementations.
	ErrForbidden   = errors.New("operation forbidden")
	ErrUnavailable = errors.New("platform unavailable")
)
