package auth

import "errors"

var (
	// Credential and session failures. ErrInvalidCredentials is returned
	// for unknown username, wrong password and inactive account alike so
	// the login endpoint never leaks which one it was.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrAgentNotActive     = errors.New("agent account is not active")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrMalformedSession   = errors.New("malformed session cookie")

	// Guard decisions.
	ErrModuleDisabled    = errors.New("module is disabled")
	ErrMissingPermission = errors.New("missing permission")

	// Role store conflicts.
	ErrRoleInUse         = errors.New("role is assigned to one or more agents")
	ErrDuplicateRoleName = errors.New("role with this name already exists")
)
