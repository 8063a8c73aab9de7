package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dayspark/core/internal/api/middleware"
	"github.com/dayspark/core/internal/services"
)

// AccountHandler handles linked-account requests
type AccountHandler struct {
	accountService *services.AccountService
	briefService   *services.BriefService
	logService     *services.LogService
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(accountService *services.AccountService, briefService *services.BriefService, logService *services.LogService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		briefService:   briefService,
		logService:     logService,
	}
}

// CreateAccountRequest represents the account linking request body
type CreateAccountRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
	Primary     bool   `json:"primary"`
	IMAPHost    string `json:"imap_host"`
	IMAPPort    int    `json:"imap_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseSSL      *bool  `json:"use_ssl"`
	CalendarID  string `json:"calendar_id"`
}

// ListAccounts returns all linked accounts for the current user
// GET /api/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_FAILED",
				"message": "User not authenticated",
			},
		})
		return
	}

	accounts, err := h.accountService.ListAccounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to list accounts",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    accounts,
	})
}

// CreateAccount links a new account for the current user
// POST /api/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_FAILED",
				"message": "User not authenticated",
			},
		})
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	useSSL := true
	if req.UseSSL != nil {
		useSSL = *req.UseSSL
	}

	account, err := h.accountService.CreateAccount(services.CreateAccountInput{
		UserID:      userID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Primary:     req.Primary,
		IMAPHost:    req.IMAPHost,
		IMAPPort:    req.IMAPPort,
		Username:    req.Username,
		Password:    req.Password,
		UseSSL:      useSSL,
		CalendarID:  req.CalendarID,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		switch {
		case errors.Is(err, services.ErrAccountAlreadyExists):
			status = http.StatusConflict
			code = "ALREADY_EXISTS"
		case errors.Is(err, services.ErrInvalidAccountData):
			status = http.StatusBadRequest
			code = "VALIDATION_ERROR"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// A new account changes what the next brief should contain
	h.briefService.InvalidateBrief(userID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    account,
	})
}

// GetAccount returns one linked account
// GET /api/accounts/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, accountID, ok := h.accountFromPath(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccountByIDAndUserID(accountID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Account not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    account,
	})
}

// DeleteAccount unlinks an account
// DELETE /api/accounts/:id
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, accountID, ok := h.accountFromPath(c)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(accountID, userID); err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		if errors.Is(err, services.ErrAccountNotFound) {
			status = http.StatusNotFound
			code = "NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": "Failed to delete account",
			},
		})
		return
	}

	h.briefService.InvalidateBrief(userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account deleted",
	})
}

// EnableAccount enables a linked account
// PUT /api/accounts/:id/enable
func (h *AccountHandler) EnableAccount(c *gin.Context) {
	h.setEnabled(c, true)
}

// DisableAccount disables a linked account
// PUT /api/accounts/:id/disable
func (h *AccountHandler) DisableAccount(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *AccountHandler) setEnabled(c *gin.Context, enabled bool) {
	userID, accountID, ok := h.accountFromPath(c)
	if !ok {
		return
	}

	if err := h.accountService.SetEnabled(accountID, userID, enabled); err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		if errors.Is(err, services.ErrAccountNotFound) {
			status = http.StatusNotFound
			code = "NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": "Failed to update account",
			},
		})
		return
	}

	h.briefService.InvalidateBrief(userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account updated",
	})
}

// TestConnection verifies the stored IMAP credentials of an account
// POST /api/accounts/:id/test
func (h *AccountHandler) TestConnection(c *gin.Context) {
	userID, accountID, ok := h.accountFromPath(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccountByIDAndUserID(accountID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Account not found",
			},
		})
		return
	}

	result := h.accountService.TestIMAPConnection(account)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// accountFromPath extracts the authenticated user and the :id path
// parameter, writing the error response on failure
func (h *AccountHandler) accountFromPath(c *gin.Context) (userID, accountID uint, ok bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_FAILED",
				"message": "User not authenticated",
			},
		})
		return 0, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid account ID",
			},
		})
		return 0, 0, false
	}

	return userID, uint(id), true
}
