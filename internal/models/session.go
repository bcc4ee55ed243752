package models

import "time"

// UserSession is the server-side session record backing a JWT.
type UserSession struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	LastAccessed  time.Time `json:"last_accessed"`
}
