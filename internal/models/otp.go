package models

import "time"

// OTPCodeLength is the number of decimal digits in a one-time code.
const OTPCodeLength = 6

// OTPChallenge is a time-boxed one-time code issued after a successful
// password check. Challenges are consumed exactly once and retained for
// audit; they are never deleted or otherwise mutated.
type OTPChallenge struct {
	ID        string
	UserID    string
	Code      string
	Consumed  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the challenge is still eligible for validation at t.
// Expiry is exclusive: a challenge is unusable at or after ExpiresAt.
func (c *OTPChallenge) Live(t time.Time) bool {
	return !c.Consumed && t.Before(c.ExpiresAt)
}
