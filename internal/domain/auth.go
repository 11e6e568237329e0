package domain

import "time"

// Session describes an access token handed out by a successful login.
type Session struct {
	Token       string
	SubjectID   int64
	Authorities []Authority
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
