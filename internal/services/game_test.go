package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"solcases-backend/internal/fair"
	"solcases-backend/internal/models"
	"solcases-backend/internal/packs"
	"solcases-backend/internal/services"
)

func hashCommitment(seed string) string {
	return fair.Hash(seed, "pending")
}

func TestOpenCase(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_open_user"
	defer redisService.DeleteWallet(userID)
	defer redisService.DeleteProgress(userID)
	defer redisService.DeleteSeedHistory(userID)

	redisService.SaveWallet(newTestWallet(userID, 1.0))

	result, err := gameService.OpenCase(context.Background(), userID, packs.PackStarter, 0.001)
	if err != nil {
		t.Fatalf("Failed to open case: %v", err)
	}

	if len(result.Cards) != packs.SlotsPerPack {
		t.Errorf("Expected %d cards, got %d", packs.SlotsPerPack, len(result.Cards))
	}
	if result.ServerSeed == "" || result.ClientSeed == "" || result.InitialHash == "" {
		t.Error("Result should carry the full verification data")
	}
	if result.NextCommitment == "" {
		t.Error("Result should carry the next commitment")
	}

	if math.Abs(result.CreditedAmount-result.TotalWinAmount*0.85) > 1e-12 {
		t.Errorf("Credited amount should be 85%% of winnings: %v vs %v", result.CreditedAmount, result.TotalWinAmount)
	}

	wantBalance := 1.0 - 0.001 + result.CreditedAmount
	if math.Abs(result.NewBalance-wantBalance) > 1e-9 {
		t.Errorf("New balance = %v, want %v", result.NewBalance, wantBalance)
	}

	wallet, _ := redisService.GetWallet(userID)
	if wallet.PendingTransaction != nil {
		t.Error("No pending transaction should remain after a successful open")
	}

	if result.XPEarned != 1 {
		t.Errorf("Starter open should earn 1 XP, got %d", result.XPEarned)
	}

	state, _ := redisService.GetProgress(userID)
	if state.XP != 1 {
		t.Errorf("Progress XP = %d, want 1", state.XP)
	}

	transactions, err := redisService.GetUserTransactions(userID, 1)
	if err != nil || len(transactions) != 1 {
		t.Fatalf("Expected one recorded transaction, got %d (err %v)", len(transactions), err)
	}
	tx := transactions[0]
	if tx.Type != models.TransactionTypeWin {
		t.Errorf("Recorded transaction type = %s, want %s", tx.Type, models.TransactionTypeWin)
	}
	if math.Abs(tx.BalanceAfter-result.NewBalance) > 1e-9 {
		t.Errorf("Transaction balance after = %v, want %v", tx.BalanceAfter, result.NewBalance)
	}
	if math.Abs(tx.BalanceBefore-(result.NewBalance-result.CreditedAmount)) > 1e-9 {
		t.Errorf("Transaction balance before = %v, want %v", tx.BalanceBefore, result.NewBalance-result.CreditedAmount)
	}

	// The revealed seeds replay to the same outcome.
	verified, err := gameService.VerifyCase(&models.VerifyCaseRequest{
		CaseType:   string(packs.PackStarter),
		BetAmount:  0.001,
		ServerSeed: result.ServerSeed,
		ClientSeed: result.ClientSeed,
	})
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}
	if verified.TotalWinAmount != result.TotalWinAmount {
		t.Errorf("Verification mismatch: %v vs %v", verified.TotalWinAmount, result.TotalWinAmount)
	}
	for i := range verified.Cards {
		if verified.Cards[i].Roll != result.Cards[i].Roll || verified.Cards[i].Rarity != result.Cards[i].Rarity {
			t.Errorf("Card %d differs on replay", i)
		}
	}
}

func TestOpenCaseInsufficientBalance(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_broke_user"
	defer redisService.DeleteWallet(userID)

	redisService.SaveWallet(newTestWallet(userID, 0.0001))

	_, err := gameService.OpenCase(context.Background(), userID, packs.PackStarter, 0.001)
	if err != services.ErrInsufficientBalance {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
}

func TestOpenCaseRejectsWrongBet(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_wrongbet_user"
	defer redisService.DeleteWallet(userID)

	redisService.SaveWallet(newTestWallet(userID, 1.0))

	if _, err := gameService.OpenCase(context.Background(), userID, packs.PackStarter, 0.5); err == nil {
		t.Error("Bet not matching the pack cost should be rejected")
	}
	if _, err := gameService.OpenCase(context.Background(), userID, "mystery", 0.001); err == nil {
		t.Error("Unknown pack type should be rejected")
	}
}

func TestCommitmentStableUntilOpen(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_commit_user"
	defer redisService.DeleteWallet(userID)
	defer redisService.DeleteProgress(userID)
	defer redisService.DeleteSeedHistory(userID)

	first, err := gameService.Commitment(userID)
	if err != nil {
		t.Fatalf("Failed to get commitment: %v", err)
	}
	if first == "" {
		t.Fatal("Commitment should be issued on first request")
	}

	second, _ := gameService.Commitment(userID)
	if second != first {
		t.Error("Commitment should be stable between opens")
	}

	redisService.SaveWallet(newTestWallet(userID, 1.0))
	result, err := gameService.OpenCase(context.Background(), userID, packs.PackStarter, 0.001)
	if err != nil {
		t.Fatalf("Failed to open case: %v", err)
	}

	// The consumed seed must hash to the prior commitment.
	if got := hashCommitment(result.ServerSeed); got != first {
		t.Errorf("Revealed seed does not match prior commitment: %s vs %s", got, first)
	}

	after, _ := gameService.Commitment(userID)
	if after == first {
		t.Error("Commitment should rotate after an open")
	}
	if after != result.NextCommitment {
		t.Error("Commitment endpoint should agree with the open result")
	}
}

func TestForceClearPending(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_forceclear_user"
	defer redisService.DeleteWallet(userID)

	redisService.SaveWallet(newTestWallet(userID, 1.0))

	// A fresh guard is too young to clear.
	redisService.BeginCaseOpen(userID, 0.1, "elite", "tx_young", time.Now().UnixMilli())
	if err := gameService.ForceClearPending(userID); err == nil {
		t.Error("Clearing a fresh guard should fail")
	}
	redisService.AbortCaseOpen(userID, "tx_young")

	oldTS := time.Now().Add(-3 * time.Minute).UnixMilli()
	redisService.BeginCaseOpen(userID, 0.1, "elite", "tx_old", oldTS)
	if err := gameService.ForceClearPending(userID); err != nil {
		t.Fatalf("Clearing an aged guard failed: %v", err)
	}

	wallet, _ := redisService.GetWallet(userID)
	if wallet.PendingTransaction != nil {
		t.Error("Guard should be cleared")
	}
	if wallet.Balance != 1.0 {
		t.Errorf("Balance should be restored, got %f", wallet.Balance)
	}

	if err := gameService.ForceClearPending(userID); err == nil {
		t.Error("Clearing with no pending transaction should fail")
	}
}

func TestTransactionStatus(t *testing.T) {
	redisService := setupTestRedis(t)
	defer redisService.Close()

	gameService := services.NewGameService(redisService)

	userID := "test_status_user"
	defer redisService.DeleteWallet(userID)

	redisService.SaveWallet(newTestWallet(userID, 1.0))
	redisService.BeginCaseOpen(userID, 0.1, "elite", "tx_pending", time.Now().UnixMilli())

	status, err := gameService.TransactionStatus(userID, "tx_pending")
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if status != "pending" {
		t.Errorf("Expected pending, got %s", status)
	}

	status, _ = gameService.TransactionStatus(userID, "tx_other")
	if status != "completed" {
		t.Errorf("Unknown transaction should report completed, got %s", status)
	}

	redisService.AbortCaseOpen(userID, "tx_pending")
}
