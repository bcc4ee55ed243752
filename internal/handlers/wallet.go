package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"solcases-backend/internal/models"
	"solcases-backend/internal/services"
)

type WalletHandler struct {
	redisService *services.RedisService
	jwtService   *services.JWTService
	provider     services.WalletProvider
}

func NewWalletHandler(redisService *services.RedisService, jwtService *services.JWTService, provider services.WalletProvider) *WalletHandler {
	return &WalletHandler{
		redisService: redisService,
		jwtService:   jwtService,
		provider:     provider,
	}
}

// CreateWallet provisions a custodial Solana wallet, creates a session
// and returns a bearer token. Idempotent per provider user id: an
// existing wallet is reused with a fresh session.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req struct {
		Handle string `json:"handle"`
	}
	c.ShouldBindJSON(&req)

	if req.Handle == "" {
		req.Handle = uuid.New().String()
	}

	provisioned, err := h.provider.CreateWallet(c.Request.Context(), req.Handle)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to provision wallet",
			"details": err.Error(),
		})
		return
	}

	wallet, err := h.redisService.GetWallet(provisioned.UserID)
	if err == services.ErrWalletNotFound {
		wallet = &models.Wallet{
			UserID:    provisioned.UserID,
			Address:   provisioned.Address,
			CreatedAt: time.Now().Unix(),
		}
		if err := h.redisService.SaveWallet(wallet); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save wallet"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	sessionID := uuid.New().String()
	session := &models.UserSession{
		SessionID:     sessionID,
		UserID:        wallet.UserID,
		WalletAddress: wallet.Address,
		CreatedAt:     time.Now(),
		LastAccessed:  time.Now(),
	}

	if err := h.redisService.StoreUserSession(session); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := h.jwtService.GenerateToken(wallet.UserID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"wallet": gin.H{
			"user_id":  wallet.UserID,
			"address":  wallet.Address,
			"username": wallet.Username,
			"balance":  wallet.Balance,
		},
	})
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetString("user_id")

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"wallet": gin.H{
			"user_id":       wallet.UserID,
			"address":       wallet.Address,
			"username":      wallet.Username,
			"balance":       wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
			"created_at":    wallet.CreatedAt,
		},
	})
}

func (h *WalletHandler) SaveUsername(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	wallet.Username = req.Username
	if err := h.redisService.SaveWallet(wallet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save username"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": wallet.Username,
	})
}

func (h *WalletHandler) ClearSession(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.GetString("session_id")

	if err := h.redisService.DeleteUserSession(userID, sessionID); err != nil {
		log.Printf("Failed to delete session %s for user %s: %v", sessionID, userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session cleared",
	})
}
