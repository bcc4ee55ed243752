package models

// PendingTransaction marks an in-flight pack opening. While set, no other
// opening may begin for the same user; a background sweep reclaims stale
// markers and restores the debited bet.
type PendingTransaction struct {
	TransactionID string  `json:"transaction_id"`
	PackType      string  `json:"pack_type"`
	BetAmount     float64 `json:"bet_amount"`
	Timestamp     int64   `json:"timestamp"` // unix milliseconds
}

// Wallet is the server-side ledger for one user. Balance is the internal
// site balance, reconciled against the custodial wallet only at account
// initialization.
type Wallet struct {
	UserID       string  `json:"user_id"`
	Address      string  `json:"address"`
	Username     string  `json:"username,omitempty"`
	Balance      float64 `json:"balance"`
	TotalWagered float64 `json:"total_wagered"`
	TotalWon     float64 `json:"total_won"`

	PendingTransaction *PendingTransaction `json:"pending_transaction,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
