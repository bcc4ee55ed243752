package models

import "fmt"

// solanaAddressLength is the length of a base58 Solana address as sent
// by clients.
const solanaAddressLength = 44

type OpenCaseRequest struct {
	CaseType string `json:"caseType" binding:"required"`
}

type UsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

func (r *UsernameRequest) Validate() error {
	if len(r.Username) == 0 {
		return fmt.Errorf("username must not be empty")
	}
	if len(r.Username) > 20 {
		return fmt.Errorf("username too long")
	}
	return nil
}

type WithdrawRequest struct {
	Amount  float64 `json:"amount" binding:"required"`
	Address string  `json:"address" binding:"required"`
}

func (r *WithdrawRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("invalid amount")
	}
	if len(r.Address) != solanaAddressLength {
		return fmt.Errorf("invalid SOL address")
	}
	return nil
}

type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (r *DepositRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("invalid amount")
	}
	return nil
}

type ClaimRewardRequest struct {
	Rarity string `json:"rarity" binding:"required"`
}

// VerifyCaseRequest carries the revealed seed pair a client replays a
// pack opening with.
type VerifyCaseRequest struct {
	CaseType   string  `json:"caseType" binding:"required"`
	BetAmount  float64 `json:"betAmount" binding:"required"`
	ServerSeed string  `json:"serverSeed" binding:"required"`
	ClientSeed string  `json:"clientSeed" binding:"required"`
}
