package domain

import "errors"

// Registration.
var (
	ErrDuplicateUsername = errors.New("username is already taken")
	ErrDuplicateEmail    = errors.New("email is already in use")
	ErrUnknownRole       = errors.New("unknown role")
)

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrRevokedToken       = errors.New("token revoked")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Authorization.
var ErrForbidden = errors.New("access forbidden")

// Lookups.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
)
