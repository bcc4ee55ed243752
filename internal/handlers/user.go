package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solcases-backend/internal/models"
	"solcases-backend/internal/packs"
	"solcases-backend/internal/progression"
	"solcases-backend/internal/services"
)

type UserHandler struct {
	redisService *services.RedisService
	gameService  *services.GameService
	provider     services.WalletProvider
}

func NewUserHandler(redisService *services.RedisService, gameService *services.GameService, provider services.WalletProvider) *UserHandler {
	return &UserHandler{
		redisService: redisService,
		gameService:  gameService,
		provider:     provider,
	}
}

// GetBalance returns the custodial balance. A zero balance triggers a
// one-time on-chain lookup so a funded address starts playable.
func (h *UserHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	if wallet.Balance == 0 && wallet.TotalWagered == 0 && wallet.Address != "" {
		if lamports, err := h.provider.GetBalance(c.Request.Context(), wallet.Address); err == nil && lamports > 0 {
			wallet.Balance = services.LamportsToSOL(lamports)
			h.redisService.SaveWallet(wallet)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": gin.H{
			"available":     wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
			"address":       wallet.Address,
		},
	})
}

func (h *UserHandler) Deposit(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.redisService.CreditBalance(userID, req.Amount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to credit deposit", "details": err.Error()})
		return
	}

	wallet, _ := h.redisService.GetWallet(userID)

	h.redisService.SaveTransaction(&models.Transaction{
		ID:            models.GenerateTransactionID(),
		UserID:        userID,
		Type:          models.TransactionTypeDeposit,
		Amount:        req.Amount,
		BalanceBefore: wallet.Balance - req.Amount,
		BalanceAfter:  wallet.Balance,
		Status:        "completed",
		Description:   "Deposit",
		CreatedAt:     time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"new_balance": wallet.Balance,
	})
}

func (h *UserHandler) Withdraw(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(userID, "withdraw", 5, time.Minute)
	if err != nil || !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many withdrawal attempts. Please wait."})
		return
	}

	if err := h.redisService.DebitBalance(userID, req.Amount); err != nil {
		if err == services.ErrInsufficientBalance {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to debit withdrawal", "details": err.Error()})
		return
	}

	wallet, _ := h.redisService.GetWallet(userID)

	// The on-chain transfer is executed out of band; the transaction is
	// recorded pending so support can reconcile.
	h.redisService.SaveTransaction(&models.Transaction{
		ID:            models.GenerateTransactionID(),
		UserID:        userID,
		Type:          models.TransactionTypeWithdraw,
		Amount:        req.Amount,
		To:            req.Address,
		BalanceBefore: wallet.Balance + req.Amount,
		BalanceAfter:  wallet.Balance,
		Status:        "pending",
		Description:   "Withdrawal request",
		CreatedAt:     time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"new_balance": wallet.Balance,
		"message":     "Withdrawal queued",
	})
}

func (h *UserHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 50
	}

	transactions, err := h.redisService.GetUserTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transactions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func (h *UserHandler) GetLevel(c *gin.Context) {
	userID := c.GetString("user_id")

	state, err := h.redisService.GetProgress(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get progress", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"level": gin.H{
			"level":              state.Level,
			"xp":                 state.XP,
			"xp_for_next_level":  progression.XPForNextLevel(state.Level),
			"total_xp_for_level": progression.TotalXPForLevel(state.Level + 1),
		},
	})
}

func (h *UserHandler) GetCollections(c *gin.Context) {
	userID := c.GetString("user_id")

	state, err := h.redisService.GetProgress(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get progress", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"collections": state.Progress(),
		"owned":       state.Collections,
		"rewards":     state.Rewards,
	})
}

func (h *UserHandler) ClaimReward(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.ClaimRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	rarity := packs.Rarity(req.Rarity)
	if !rarity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown rarity"})
		return
	}

	reward, err := h.gameService.ClaimCollectionReward(userID, rarity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to claim reward", "details": err.Error()})
		return
	}

	wallet, _ := h.redisService.GetWallet(userID)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"reward":      reward,
		"new_balance": wallet.Balance,
	})
}

// GetInventory returns the client-managed inventory blob; the server
// never interprets its contents.
func (h *UserHandler) GetInventory(c *gin.Context) {
	userID := c.GetString("user_id")

	inventory, err := h.redisService.GetInventory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get inventory", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"inventory": inventory,
	})
}

func (h *UserHandler) SaveInventory(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Inventory json.RawMessage `json:"inventory" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Inventory data required"})
		return
	}

	if err := h.redisService.SaveInventory(userID, req.Inventory); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save inventory", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.redisService.GetGlobalStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func (h *UserHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
