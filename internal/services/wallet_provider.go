package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"solcases-backend/internal/config"
)

// WalletProvider provisions custodial Solana wallets and reads on-chain
// balances. The server never holds private keys.
type WalletProvider interface {
	CreateWallet(ctx context.Context, handle string) (*ProvisionedWallet, error)
	GetBalance(ctx context.Context, address string) (uint64, error)
}

type ProvisionedWallet struct {
	UserID  string
	Address string
}

// PrivyClient provisions wallets through the Privy API and reads
// balances from a Solana JSON-RPC node.
type PrivyClient struct {
	appID     string
	appSecret string
	baseURL   string
	rpcURL    string
	http      *http.Client
}

func NewPrivyClient(cfg *config.Config) *PrivyClient {
	return &PrivyClient{
		appID:     cfg.PrivyAppID,
		appSecret: cfg.PrivyAppSecret,
		baseURL:   cfg.PrivyBaseURL,
		rpcURL:    cfg.SolanaRPCURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type privyLinkedAccount struct {
	Type      string `json:"type"`
	ChainType string `json:"chain_type"`
	Address   string `json:"address"`
}

type privyUser struct {
	ID             string               `json:"id"`
	LinkedAccounts []privyLinkedAccount `json:"linked_accounts"`
}

func (p *PrivyClient) CreateWallet(ctx context.Context, handle string) (*ProvisionedWallet, error) {
	payload := map[string]interface{}{
		"create_solana_wallet": true,
		"linked_accounts": []map[string]string{
			{"type": "custom_auth", "custom_user_id": handle},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	// baseURL already carries the API version prefix.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.appID, p.appSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("privy-app-id", p.appID)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("privy request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("privy returned status %d: %s", resp.StatusCode, data)
	}

	var user privyUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse privy response: %v", err)
	}

	for _, account := range user.LinkedAccounts {
		if account.Type == "wallet" && account.ChainType == "solana" {
			return &ProvisionedWallet{UserID: user.ID, Address: account.Address}, nil
		}
	}

	return nil, errors.New("privy response missing solana wallet")
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcBalanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetBalance returns the on-chain balance in lamports.
func (p *PrivyClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getBalance",
		Params:  []interface{}{address},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.rpcURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("solana rpc request failed: %v", err)
	}
	defer resp.Body.Close()

	var parsed rpcBalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to parse rpc response: %v", err)
	}

	if parsed.Error != nil {
		return 0, fmt.Errorf("solana rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	return parsed.Result.Value, nil
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / 1e9
}
