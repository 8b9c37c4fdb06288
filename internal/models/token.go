package models

import "time"

// ClassToken is a QR attendance token minted for one class session.
// It is never mutated after issuance; expiry is checked lazily on redeem.
// The token is not consumed by redemption — one token serves the whole
// class until it expires.
type ClassToken struct {
	Token     string    `json:"token"`
	ClassID   string    `json:"classId"`
	IssueDate string    `json:"issueDate"` // calendar date YYYY-MM-DD, scopes the one-per-day rule
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *ClassToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
