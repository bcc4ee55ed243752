package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	PrivyAppID     string
	PrivyAppSecret string
	PrivyBaseURL   string

	SolanaRPCURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:      getEnv("REDIS_PASSWORD", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		PrivyAppID:     getEnv("PRIVY_APP_ID", ""),
		PrivyAppSecret: getEnv("PRIVY_APP_SECRET", ""),
		PrivyBaseURL:   getEnv("PRIVY_BASE_URL", "https://api.privy.io/v1"),
		SolanaRPCURL:   getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
