package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solcases-backend/internal/config"
	"solcases-backend/internal/services"
)

func TestCreateWalletRequestPath(t *testing.T) {
	var gotPath, gotAuthUser string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuthUser, _, _ = r.BasicAuth()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "did:privy:user123",
			"linked_accounts": []map[string]string{
				{"type": "custom_auth", "custom_user_id": "handle1"},
				{"type": "wallet", "chain_type": "solana", "address": "So11111111111111111111111111111111111111112"},
			},
		})
	}))
	defer server.Close()

	client := services.NewPrivyClient(&config.Config{
		PrivyAppID:     "app123",
		PrivyAppSecret: "secret",
		PrivyBaseURL:   server.URL + "/v1",
	})

	wallet, err := client.CreateWallet(context.Background(), "handle1")
	if err != nil {
		t.Fatalf("Failed to create wallet: %v", err)
	}

	if gotPath != "/v1/users" {
		t.Errorf("CreateWallet hit %q, want %q", gotPath, "/v1/users")
	}
	if gotAuthUser != "app123" {
		t.Errorf("Basic auth user = %q, want app id", gotAuthUser)
	}
	if wallet.UserID != "did:privy:user123" {
		t.Errorf("User ID = %q", wallet.UserID)
	}
	if wallet.Address != "So11111111111111111111111111111111111111112" {
		t.Errorf("Address = %q", wallet.Address)
	}
}

func TestCreateWalletMissingSolanaAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":              "did:privy:user123",
			"linked_accounts": []map[string]string{{"type": "email"}},
		})
	}))
	defer server.Close()

	client := services.NewPrivyClient(&config.Config{PrivyBaseURL: server.URL + "/v1"})

	if _, err := client.CreateWallet(context.Background(), "handle1"); err == nil {
		t.Error("Response without a solana wallet should be an error")
	}
}

func TestGetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getBalance" {
			t.Errorf("RPC method = %q, want getBalance", req.Method)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  map[string]interface{}{"value": 1500000000},
		})
	}))
	defer server.Close()

	client := services.NewPrivyClient(&config.Config{SolanaRPCURL: server.URL})

	lamports, err := client.GetBalance(context.Background(), "So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("Failed to get balance: %v", err)
	}
	if lamports != 1500000000 {
		t.Errorf("Balance = %d lamports, want 1500000000", lamports)
	}
	if got := services.LamportsToSOL(lamports); got != 1.5 {
		t.Errorf("LamportsToSOL = %v, want 1.5", got)
	}
}
