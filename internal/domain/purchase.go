package domain

import "time"

// Purchase is the record written when a checkout completes. It captures the
// cart as it was at purchase time, with the server-declared total.
type Purchase struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Total     int64      `json:"total"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
}
