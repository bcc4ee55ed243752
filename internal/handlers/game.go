package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solcases-backend/internal/models"
	"solcases-backend/internal/packs"
	"solcases-backend/internal/services"
)

type GameHandler struct {
	gameService  *services.GameService
	redisService *services.RedisService
}

func NewGameHandler(gameService *services.GameService, redisService *services.RedisService) *GameHandler {
	return &GameHandler{
		gameService:  gameService,
		redisService: redisService,
	}
}

func (h *GameHandler) OpenCase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.OpenCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(userID, "open", 30, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many pack opens. Please wait."})
		return
	}

	packType := packs.PackType(req.CaseType)
	pack, err := packs.PackByType(packType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pack type", "details": err.Error()})
		return
	}

	result, err := h.gameService.OpenCase(c.Request.Context(), userID, packType, pack.Cost)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A pack opening is already in progress"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		case errors.Is(err, services.ErrWalletNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to open pack",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) GetCommitment(c *gin.Context) {
	userID := c.GetString("user_id")

	commitment, err := h.gameService.Commitment(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get commitment",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"commitment": commitment,
	})
}

func (h *GameHandler) GetSeedHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	seeds, err := h.gameService.SeedHistory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get seed history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"seeds":   seeds,
		"count":   len(seeds),
	})
}

func (h *GameHandler) VerifyCase(c *gin.Context) {
	var req models.VerifyCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.gameService.VerifyCase(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Verification failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"verification": gin.H{
			"valid":            true,
			"case_type":        req.CaseType,
			"server_seed":      req.ServerSeed,
			"client_seed":      req.ClientSeed,
			"initial_hash":     result.InitialHash,
			"cards":            result.Cards,
			"total_multiplier": result.TotalMultiplier,
			"total_win_amount": result.TotalWinAmount,
		},
	})
}

func (h *GameHandler) GetTransactionStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	transactionID := c.Param("id")

	status, err := h.gameService.TransactionStatus(userID, transactionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get transaction status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"transaction_id": transactionID,
		"status":         status,
	})
}

func (h *GameHandler) ForceCompleteTransaction(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.gameService.ForceClearPending(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to clear pending transaction",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Pending transaction cleared and bet refunded",
	})
}
