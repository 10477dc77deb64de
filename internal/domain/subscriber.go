package domain

import "time"

// Subscriber is keyed by email on the server; ID is only used by the admin
// toggle endpoint.
type Subscriber struct {
	ID           int64      `json:"id,omitempty"`
	Email        string     `json:"email"`
	Verified     bool       `json:"verified"`
	Active       bool       `json:"isActive"`
	SubscribedAt *time.Time `json:"subscribedAt,omitempty"`
}

func (s Subscriber) Key() string {
	return idKey(s.ID)
}

// VerificationResult is what the verify endpoint reports for a token.
type VerificationResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r VerificationResult) OK() bool {
	return r.Status == "success"
}
