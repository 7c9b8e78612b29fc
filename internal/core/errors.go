package core

import "errors"

// Structured failures an engine may report from Connect. Engines that only
// have free-text errors return those instead.
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrUnreachable       = errors.New("network unreachable")
	ErrServerUnavailable = errors.New("server unavailable")
)
