// Package service contains the application's business logic layer.
package service

import "errors"

// Sentinel errors the handlers map to HTTP status codes.
var (
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidRole        = errors.New("role must be admin, secretary or user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrNotPDF             = errors.New("only PDF files are allowed")
)
