package domain

import "time"

// AuthEventType classifies an entry of the authentication audit trail.
type AuthEventType string

const (
	EventSignup         AuthEventType = "signup"
	EventSignupRejected AuthEventType = "signup_rejected"
	EventLogin          AuthEventType = "login"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLogout         AuthEventType = "logout"
)

// AuthEvent records an authentication outcome. It never carries passwords
// or tokens.
type AuthEvent struct {
	Type       AuthEventType
	Username   string
	Reason     string
	OccurredAt time.Time
}
