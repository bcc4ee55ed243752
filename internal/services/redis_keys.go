package services

import "time"

const (
	KeyUserSession      = "user:%s:session:%s"
	KeyWallet           = "wallet:%s"
	KeyProgress         = "progress:%s"
	KeyInventory        = "inventory:%s"
	KeySeedHistory      = "seeds:%s"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%s:transactions"
	KeyRateLimit        = "ratelimit:%s:%s"
	KeyChatHistory      = "chat:history"
	KeyGlobalStats      = "stats:global"
	KeyActiveUsers      = "stats:active_users"

	TTLUserSession = 90 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	MaxChatHistory      = 100
	MaxUserTransactions = 100
)
