package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"solcases-backend/internal/fair"
	"solcases-backend/internal/models"
	"solcases-backend/internal/packs"
	"solcases-backend/internal/progression"
)

const (
	// payoutRate is the share of the raw pack winnings credited back to
	// the player; the remainder is the house cut on top of the table edge.
	payoutRate      = 0.85
	houseProfitRate = 0.08

	// staleGuardAge is how old a pending transaction must be before the
	// background sweep reclaims it; forceClearMinAge is the minimum age
	// before a player may clear their own stuck guard.
	staleGuardAge    = 5 * time.Minute
	forceClearMinAge = 2 * time.Minute
)

// GameService runs the provably fair pack opening flow: commit to a
// server seed, debit the bet under the in-flight guard, resolve the
// pack deterministically from the seed pair, apply progression, then
// credit the payout and clear the guard.
type GameService struct {
	store *RedisService
	seeds *fair.SeedManager
}

func NewGameService(store *RedisService) *GameService {
	return &GameService{
		store: store,
		seeds: fair.NewSeedManager(store),
	}
}

// OpenCaseResult is the full outcome of one pack opening, including
// everything a client needs to verify the run independently.
type OpenCaseResult struct {
	TransactionID   string                                 `json:"transaction_id"`
	PackType        packs.PackType                         `json:"pack_type"`
	BetAmount       float64                                `json:"bet_amount"`
	Cards           []packs.Card                           `json:"cards"`
	TotalMultiplier float64                                `json:"total_multiplier"`
	TotalWinAmount  float64                                `json:"total_win_amount"`
	CreditedAmount  float64                                `json:"credited_amount"`
	NewBalance      float64                                `json:"new_balance"`
	ServerSeed      string                                 `json:"server_seed"`
	ClientSeed      string                                 `json:"client_seed"`
	InitialHash     string                                 `json:"initial_hash"`
	NextCommitment  string                                 `json:"next_commitment"`
	XPEarned        int64                                  `json:"xp_earned"`
	Level           int                                    `json:"level"`
	LevelUp         *progression.LevelUpEvent              `json:"level_up,omitempty"`
	Completions     []progression.CollectionCompletedEvent `json:"completions,omitempty"`
}

// OpenCase opens one pack for the user. The bet is debited atomically
// together with the pending guard; any failure before the payout is
// credited aborts the guard and restores the balance. Once settled the
// abort is a no-op, so a late failure can no longer refund the bet.
func (g *GameService) OpenCase(ctx context.Context, userID string, packType packs.PackType, betAmount float64) (*OpenCaseResult, error) {
	pack, err := packs.PackByType(packType)
	if err != nil {
		return nil, err
	}
	if betAmount != pack.Cost {
		return nil, fmt.Errorf("bet amount %.4f does not match %s pack cost %.4f", betAmount, packType, pack.Cost)
	}

	transactionID := models.GenerateTransactionID()
	now := time.Now()

	if err := g.store.BeginCaseOpen(userID, betAmount, string(packType), transactionID, now.UnixMilli()); err != nil {
		return nil, err
	}

	result, err := g.resolveAndSettle(userID, transactionID, pack, betAmount, now)
	if err != nil {
		g.store.AbortCaseOpen(userID, transactionID)
		return nil, err
	}

	return result, nil
}

func (g *GameService) resolveAndSettle(userID, transactionID string, pack *packs.Pack, betAmount float64, now time.Time) (*OpenCaseResult, error) {
	// The seed committed to before this open is consumed now; a fresh
	// seed is issued so the next commitment is available immediately.
	serverSeed, err := g.consumeServerSeed(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare server seed: %v", err)
	}

	clientSeed := g.seeds.GenerateClientSeed()

	packResult, err := packs.ResolvePack(betAmount, pack, serverSeed, clientSeed)
	if err != nil {
		return nil, err
	}

	credited := packResult.TotalWinAmount * payoutRate

	// The credit settles first. Everything after this point is
	// best-effort bookkeeping: once the guard is cleared the bet can
	// no longer be refunded, so side records must not fail the open.
	if err := g.store.CompleteCaseOpen(userID, transactionID, credited); err != nil {
		return nil, err
	}

	wallet, err := g.store.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	state, events, err := g.applyProgression(userID, packResult, betAmount, now)
	if err != nil {
		log.Printf("Progression update failed for %s: %v", userID, err)
	}

	g.store.RecordPackOpened(credited, betAmount*houseProfitRate)
	g.store.MarkActiveUser(userID)

	g.recordWinTransaction(userID, transactionID, pack.Type, betAmount, credited, packResult.TotalMultiplier, wallet.Balance, now)

	nextCommitment, _, err := g.seeds.CurrentCommitment(userID)
	if err != nil {
		return nil, err
	}

	return &OpenCaseResult{
		TransactionID:   transactionID,
		PackType:        pack.Type,
		BetAmount:       betAmount,
		Cards:           packResult.Cards,
		TotalMultiplier: packResult.TotalMultiplier,
		TotalWinAmount:  packResult.TotalWinAmount,
		CreditedAmount:  credited,
		NewBalance:      wallet.Balance,
		ServerSeed:      packResult.ServerSeed,
		ClientSeed:      packResult.ClientSeed,
		InitialHash:     packResult.InitialHash,
		NextCommitment:  nextCommitment,
		XPEarned:        events.XPEarned,
		Level:           state.Level,
		LevelUp:         events.LevelUp,
		Completions:     events.Completions,
	}, nil
}

// consumeServerSeed returns the currently committed seed and rotates in
// a fresh one. A user with no history yet gets a seed issued on the spot.
func (g *GameService) consumeServerSeed(userID string) (string, error) {
	seed, err := g.store.LatestServerSeed(userID)
	if err != nil {
		return "", err
	}
	if seed == "" {
		seed, err = g.seeds.IssueServerSeed(userID)
		if err != nil {
			return "", err
		}
	}

	if _, err := g.seeds.IssueServerSeed(userID); err != nil {
		return "", err
	}

	return seed, nil
}

// applyProgression updates XP, level and collections for a settled open.
// Failures here leave the wallet correct, the caller logs and continues.
func (g *GameService) applyProgression(userID string, packResult *packs.PackResult, betAmount float64, now time.Time) (*progression.State, progression.Events, error) {
	state, err := g.store.GetProgress(userID)
	if err != nil {
		return progression.NewState(), progression.Events{}, err
	}

	events := progression.ApplyPackResult(state, packResult, betAmount, now)

	if err := g.store.SaveProgress(userID, state); err != nil {
		return state, events, err
	}
	return state, events, nil
}

func (g *GameService) recordWinTransaction(userID, transactionID string, packType packs.PackType, betAmount, credited, multiplier, balanceAfter float64, now time.Time) {
	tx := &models.Transaction{
		ID:            transactionID,
		UserID:        userID,
		Type:          models.TransactionTypeWin,
		Amount:        credited,
		BalanceBefore: balanceAfter - credited,
		BalanceAfter:  balanceAfter,
		Description:   fmt.Sprintf("Opened %s pack for %.4f SOL, won %.6f SOL (%.4fx)", packType, betAmount, credited, multiplier),
		CreatedAt:     now,
	}
	if err := g.store.SaveTransaction(tx); err != nil {
		// The settled balance is authoritative; a failed history write
		// is not worth unwinding the open.
		return
	}
}

// Commitment returns the hash commitment for the user's next pack open,
// issuing the first server seed when the user has none yet.
func (g *GameService) Commitment(userID string) (string, error) {
	commitment, ok, err := g.seeds.CurrentCommitment(userID)
	if err != nil {
		return "", err
	}
	if !ok {
		if _, err := g.seeds.IssueServerSeed(userID); err != nil {
			return "", err
		}
		commitment, _, err = g.seeds.CurrentCommitment(userID)
		if err != nil {
			return "", err
		}
	}
	return commitment, nil
}

// SeedHistory returns the user's revealed server seeds, oldest first.
func (g *GameService) SeedHistory(userID string) ([]string, error) {
	return g.store.ServerSeedHistory(userID)
}

// VerifyCase replays a pack opening from revealed seeds so a player can
// confirm the outcome was determined before their bet.
func (g *GameService) VerifyCase(req *models.VerifyCaseRequest) (*packs.PackResult, error) {
	pack, err := packs.PackByType(packs.PackType(req.CaseType))
	if err != nil {
		return nil, err
	}
	return packs.ResolvePack(req.BetAmount, pack, req.ServerSeed, req.ClientSeed)
}

// TransactionStatus reports whether the given transaction is still
// pending on the user's wallet.
func (g *GameService) TransactionStatus(userID, transactionID string) (string, error) {
	wallet, err := g.store.GetWallet(userID)
	if err != nil {
		return "", err
	}

	pending := wallet.PendingTransaction
	if pending != nil && pending.TransactionID == transactionID {
		return "pending", nil
	}
	return "completed", nil
}

// ForceClearPending lets a user reclaim their own stuck guard once it
// is old enough that a concurrent open can no longer be in flight.
func (g *GameService) ForceClearPending(userID string) error {
	wallet, err := g.store.GetWallet(userID)
	if err != nil {
		return err
	}

	pending := wallet.PendingTransaction
	if pending == nil {
		return fmt.Errorf("no pending transaction")
	}

	age := time.Since(time.UnixMilli(pending.Timestamp))
	if age < forceClearMinAge {
		return fmt.Errorf("pending transaction too recent to clear, retry in %s", forceClearMinAge-age)
	}

	return g.store.AbortCaseOpen(userID, pending.TransactionID)
}

// SweepStalePending reclaims guards older than the stale threshold.
// Wired to a ticker at startup.
func (g *GameService) SweepStalePending() (int, error) {
	return g.store.SweepStalePending(staleGuardAge)
}

// ClaimCollectionReward claims a completed collection's reward and
// credits SOL rewards to the wallet.
func (g *GameService) ClaimCollectionReward(userID string, rarity packs.Rarity) (*progression.RewardSpec, error) {
	state, err := g.store.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	reward, err := state.Claim(rarity, time.Now())
	if err != nil {
		return nil, err
	}

	if err := g.store.SaveProgress(userID, state); err != nil {
		return nil, err
	}

	if reward.Type == progression.RewardSOL {
		if err := g.store.CreditBalance(userID, reward.Value); err != nil {
			return nil, err
		}

		var balanceAfter float64
		if wallet, err := g.store.GetWallet(userID); err == nil {
			balanceAfter = wallet.Balance
		}

		tx := &models.Transaction{
			ID:            models.GenerateTransactionID(),
			UserID:        userID,
			Type:          models.TransactionTypeReward,
			Amount:        reward.Value,
			BalanceBefore: balanceAfter - reward.Value,
			BalanceAfter:  balanceAfter,
			Description:   fmt.Sprintf("Claimed %s collection reward", rarity),
			CreatedAt:     time.Now(),
		}
		g.store.SaveTransaction(tx)
	}

	return &reward, nil
}
