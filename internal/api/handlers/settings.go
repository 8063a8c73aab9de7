package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayspark/core/internal/api/middleware"
	"github.com/dayspark/core/internal/services"
)

// SettingsHandler handles user settings requests
type SettingsHandler struct {
	settingsService *services.SettingsService
	briefService    *services.BriefService
	logService      *services.LogService
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(settingsService *services.SettingsService, briefService *services.BriefService, logService *services.LogService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		briefService:    briefService,
		logService:      logService,
	}
}

// GetSettings returns the user's brief settings
// GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
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

	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to load settings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// UpdateSettingsRequest represents a settings update. Omitted fields
// are left unchanged.
type UpdateSettingsRequest struct {
	EmailWindowHours    *int    `json:"email_window_hours"`
	CalendarWindowHours *int    `json:"calendar_window_hours"`
	VIPDomains          *string `json:"vip_domains"`
	GoogleClientID      *string `json:"google_client_id"`
	GoogleClientSecret  *string `json:"google_client_secret"`
	GoogleRedirectURL   *string `json:"google_redirect_url"`
}

// UpdateSettings applies a settings update and drops the cached brief
// so the next one reflects the new settings
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
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

	var req UpdateSettingsRequest
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

	// Drop the brief cached under the old settings before they change
	h.briefService.InvalidateBrief(userID)

	settings, err := h.settingsService.UpdateSettings(userID, services.UpdateSettingsInput{
		EmailWindowHours:    req.EmailWindowHours,
		CalendarWindowHours: req.CalendarWindowHours,
		VIPDomains:          req.VIPDomains,
		GoogleClientID:      req.GoogleClientID,
		GoogleClientSecret:  req.GoogleClientSecret,
		GoogleRedirectURL:   req.GoogleRedirectURL,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update settings",
			},
		})
		return
	}

	// And under the new key, in case only the VIP list changed
	h.briefService.InvalidateBrief(userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}
