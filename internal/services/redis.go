package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"solcases-backend/internal/config"
	"solcases-backend/internal/fair"
	"solcases-backend/internal/models"
	"solcases-backend/internal/progression"
)

var (
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrTransactionInProgress = errors.New("transaction already in progress")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)

// RedisService is the durable state store: wallets, progression,
// sessions, seed history, transactions, chat history and global stats,
// all partitioned by user key. Balance mutations and the in-flight guard
// run as Lua scripts so debit, credit and guard transitions are atomic.
type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client, ctx: ctx}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// ---- sessions ----

func (s *RedisService) StoreUserSession(session *models.UserSession) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, TTLUserSession).Err()
}

func (s *RedisService) GetUserSession(userID, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	updated, _ := json.Marshal(session)
	s.client.Set(s.ctx, key, updated, TTLUserSession)

	return &session, nil
}

func (s *RedisService) DeleteUserSession(userID, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)
	return s.client.Del(s.ctx, key).Err()
}

// ---- wallets ----

func (s *RedisService) GetWallet(userID string) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %v", err)
	}

	return &wallet, nil
}

func (s *RedisService) SaveWallet(wallet *models.Wallet) error {
	key := fmt.Sprintf(KeyWallet, wallet.UserID)

	wallet.UpdatedAt = time.Now().Unix()
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) DeleteWallet(userID string) error {
	key := fmt.Sprintf(KeyWallet, userID)
	return s.client.Del(s.ctx, key).Err()
}

// beginCaseOpenScript atomically rejects when a pending transaction is
// already set or the balance cannot cover the bet, then debits the bet
// and sets the guard marker in one step.
var beginCaseOpenScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	if wallet.pending_transaction then
		return redis.error_reply("transaction already in progress")
	end

	if wallet.balance < amount then
		return redis.error_reply("insufficient balance")
	end

	wallet.balance = wallet.balance - amount
	wallet.total_wagered = (wallet.total_wagered or 0) + amount
	wallet.pending_transaction = {
		transaction_id = ARGV[2],
		pack_type = ARGV[3],
		bet_amount = amount,
		timestamp = tonumber(ARGV[4])
	}

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) BeginCaseOpen(userID string, amount float64, packType, transactionID string, timestamp int64) error {
	key := fmt.Sprintf(KeyWallet, userID)
	err := beginCaseOpenScript.Run(s.ctx, s.client, []string{key}, amount, transactionID, packType, timestamp).Err()
	return mapWalletScriptError(err)
}

// completeCaseOpenScript credits the winnings and clears the guard, but
// only while the marker still carries the caller's transaction id.
var completeCaseOpenScript = redis.NewScript(`
	local key = KEYS[1]
	local txid = ARGV[1]
	local winnings = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	if not wallet.pending_transaction or wallet.pending_transaction.transaction_id ~= txid then
		return redis.error_reply("no matching pending transaction")
	end

	wallet.balance = wallet.balance + winnings
	wallet.total_won = (wallet.total_won or 0) + winnings
	wallet.pending_transaction = nil

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) CompleteCaseOpen(userID, transactionID string, winnings float64) error {
	key := fmt.Sprintf(KeyWallet, userID)
	err := completeCaseOpenScript.Run(s.ctx, s.client, []string{key}, transactionID, winnings).Err()
	return mapWalletScriptError(err)
}

// abortCaseOpenScript restores the debited bet and clears the guard.
// A mismatched or absent marker is a no-op so the sweep can race with a
// normal completion safely.
var abortCaseOpenScript = redis.NewScript(`
	local key = KEYS[1]
	local txid = ARGV[1]

	local data = redis.call("GET", key)
	if not data then
		return "NOOP"
	end

	local wallet = cjson.decode(data)

	if not wallet.pending_transaction or wallet.pending_transaction.transaction_id ~= txid then
		return "NOOP"
	end

	wallet.balance = wallet.balance + wallet.pending_transaction.bet_amount
	wallet.total_wagered = (wallet.total_wagered or 0) - wallet.pending_transaction.bet_amount
	wallet.pending_transaction = nil

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) AbortCaseOpen(userID, transactionID string) error {
	key := fmt.Sprintf(KeyWallet, userID)
	return abortCaseOpenScript.Run(s.ctx, s.client, []string{key}, transactionID).Err()
}

var creditBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	wallet.balance = wallet.balance + amount

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) CreditBalance(userID string, amount float64) error {
	key := fmt.Sprintf(KeyWallet, userID)
	err := creditBalanceScript.Run(s.ctx, s.client, []string{key}, amount).Err()
	return mapWalletScriptError(err)
}

var debitBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	if wallet.balance < amount then
		return redis.error_reply("insufficient balance")
	end

	wallet.balance = wallet.balance - amount

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) DebitBalance(userID string, amount float64) error {
	key := fmt.Sprintf(KeyWallet, userID)
	err := debitBalanceScript.Run(s.ctx, s.client, []string{key}, amount).Err()
	return mapWalletScriptError(err)
}

func mapWalletScriptError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case strings.Contains(err.Error(), "wallet not found"):
		return ErrWalletNotFound
	case strings.Contains(err.Error(), "transaction already in progress"):
		return ErrTransactionInProgress
	case strings.Contains(err.Error(), "insufficient balance"):
		return ErrInsufficientBalance
	}
	return err
}

// SweepStalePending scans all wallets and reclaims pending transactions
// older than maxAge, restoring the debited bet. Returns how many guards
// were reclaimed.
func (s *RedisService) SweepStalePending(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	reclaimed := 0

	iter := s.client.Scan(s.ctx, 0, fmt.Sprintf(KeyWallet, "*"), 100).Iterator()
	for iter.Next(s.ctx) {
		data, err := s.client.Get(s.ctx, iter.Val()).Result()
		if err != nil {
			continue
		}

		var wallet models.Wallet
		if err := json.Unmarshal([]byte(data), &wallet); err != nil {
			continue
		}

		pending := wallet.PendingTransaction
		if pending == nil || pending.Timestamp > cutoff {
			continue
		}

		if err := s.AbortCaseOpen(wallet.UserID, pending.TransactionID); err == nil {
			reclaimed++
		}
	}
	if err := iter.Err(); err != nil {
		return reclaimed, fmt.Errorf("wallet scan failed: %v", err)
	}

	return reclaimed, nil
}

// ---- server seed history ----

var _ fair.SeedStore = (*RedisService)(nil)

func (s *RedisService) AppendServerSeed(userKey, seed string) error {
	key := fmt.Sprintf(KeySeedHistory, userKey)

	pipe := s.client.TxPipeline()
	pipe.RPush(s.ctx, key, seed)
	pipe.LTrim(s.ctx, key, int64(-fair.SeedHistoryLimit), -1)
	_, err := pipe.Exec(s.ctx)
	return err
}

func (s *RedisService) LatestServerSeed(userKey string) (string, error) {
	key := fmt.Sprintf(KeySeedHistory, userKey)

	seed, err := s.client.LIndex(s.ctx, key, -1).Result()
	if err == redis.Nil {
		return "", nil
	}
	return seed, err
}

func (s *RedisService) ServerSeedHistory(userKey string) ([]string, error) {
	key := fmt.Sprintf(KeySeedHistory, userKey)
	return s.client.LRange(s.ctx, key, 0, -1).Result()
}

// ---- progression ----

func (s *RedisService) GetProgress(userID string) (*progression.State, error) {
	key := fmt.Sprintf(KeyProgress, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return progression.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %v", err)
	}

	var state progression.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %v", err)
	}

	return &state, nil
}

func (s *RedisService) SaveProgress(userID string, state *progression.State) error {
	key := fmt.Sprintf(KeyProgress, userID)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) DeleteProgress(userID string) error {
	key := fmt.Sprintf(KeyProgress, userID)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisService) DeleteSeedHistory(userID string) error {
	key := fmt.Sprintf(KeySeedHistory, userID)
	return s.client.Del(s.ctx, key).Err()
}

// ---- inventory ----

// GetInventory returns the user's client-managed inventory blob. The
// server stores it opaquely; a user with none yet gets an empty object.
func (s *RedisService) GetInventory(userID string) (json.RawMessage, error) {
	key := fmt.Sprintf(KeyInventory, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return json.RawMessage("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %v", err)
	}

	return json.RawMessage(data), nil
}

func (s *RedisService) SaveInventory(userID string, inventory json.RawMessage) error {
	key := fmt.Sprintf(KeyInventory, userID)
	return s.client.Set(s.ctx, key, []byte(inventory), 0).Err()
}

func (s *RedisService) DeleteInventory(userID string) error {
	key := fmt.Sprintf(KeyInventory, userID)
	return s.client.Del(s.ctx, key).Err()
}

// ---- transactions ----

func (s *RedisService) SaveTransaction(tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(s.ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	score := float64(tx.CreatedAt.Unix())

	if err := s.client.ZAdd(s.ctx, userTxKey, redis.Z{
		Score:  score,
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to user transactions: %v", err)
	}

	s.client.ZRemRangeByRank(s.ctx, userTxKey, 0, int64(-MaxUserTransactions-1))

	return nil
}

func (s *RedisService) GetUserTransactions(userID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxUserTransactions {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)

	txIDs, err := s.client.ZRevRange(s.ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyTransaction, txID)).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

// ---- rate limits ----

func (s *RedisService) CheckRateLimit(userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(userID, action string) error {
	key := fmt.Sprintf(KeyRateLimit, userID, action)
	return s.client.Del(s.ctx, key).Err()
}

// ---- chat history ----

func (s *RedisService) AppendChatMessage(data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.LPush(s.ctx, KeyChatHistory, data)
	pipe.LTrim(s.ctx, KeyChatHistory, 0, MaxChatHistory-1)
	_, err := pipe.Exec(s.ctx)
	return err
}

// RecentChatMessages returns up to n raw messages, oldest first.
func (s *RedisService) RecentChatMessages(n int64) ([]string, error) {
	raw, err := s.client.LRange(s.ctx, KeyChatHistory, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	// LPush stores newest first; reverse for replay order.
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return raw, nil
}

// ---- global stats ----

func (s *RedisService) RecordPackOpened(solWon, houseProfit float64) {
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(s.ctx, KeyGlobalStats, "packs_opened", 1)
	pipe.HIncrByFloat(s.ctx, KeyGlobalStats, "sol_won", solWon)
	pipe.HIncrByFloat(s.ctx, KeyGlobalStats, "house_profits", houseProfit)
	pipe.Exec(s.ctx)
}

func (s *RedisService) MarkActiveUser(userID string) {
	s.client.SAdd(s.ctx, KeyActiveUsers, userID)
}

type GlobalStats struct {
	PacksOpened  int64   `json:"packs_opened"`
	SolWon       float64 `json:"sol_won"`
	HouseProfits float64 `json:"house_profits"`
	ActiveUsers  int64   `json:"active_users"`
}

func (s *RedisService) GetGlobalStats() (*GlobalStats, error) {
	fields, err := s.client.HGetAll(s.ctx, KeyGlobalStats).Result()
	if err != nil {
		return nil, err
	}

	stats := &GlobalStats{}
	fmt.Sscanf(fields["packs_opened"], "%d", &stats.PacksOpened)
	fmt.Sscanf(fields["sol_won"], "%f", &stats.SolWon)
	fmt.Sscanf(fields["house_profits"], "%f", &stats.HouseProfits)

	stats.ActiveUsers, _ = s.client.SCard(s.ctx, KeyActiveUsers).Result()

	return stats, nil
}
