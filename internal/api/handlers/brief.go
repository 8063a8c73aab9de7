package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayspark/core/internal/api/middleware"
	"github.com/dayspark/core/internal/brief"
	"github.com/dayspark/core/internal/services"
)

// BriefHandler handles brief generation requests
type BriefHandler struct {
	briefService *services.BriefService
	logService   *services.LogService
}

// NewBriefHandler creates a new BriefHandler instance
func NewBriefHandler(briefService *services.BriefService, logService *services.LogService) *BriefHandler {
	return &BriefHandler{
		briefService: briefService,
		logService:   logService,
	}
}

// GetBrief returns the user's brief, generating it if no fresh cached
// copy exists
// GET /api/brief
func (h *BriefHandler) GetBrief(c *gin.Context) {
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

	result, err := h.briefService.GenerateBrief(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		if errors.Is(err, services.ErrNoBriefAvailable) {
			status = http.StatusServiceUnavailable
			code = "BRIEF_UNAVAILABLE"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": "Failed to generate brief",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetBriefSummary returns the plain-text rendering of the brief
// GET /api/brief/summary
func (h *BriefHandler) GetBriefSummary(c *gin.Context) {
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

	result, err := h.briefService.GenerateBrief(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "BRIEF_UNAVAILABLE",
				"message": "Failed to generate brief",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary":    brief.FormatSummary(result.Data),
			"stale":      result.Stale,
			"from_cache": result.FromCache,
		},
	})
}

// RefreshBrief invalidates the cached brief and regenerates it
// POST /api/brief/refresh
func (h *BriefHandler) RefreshBrief(c *gin.Context) {
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

	if err := h.briefService.InvalidateBrief(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to invalidate cached brief",
			},
		})
		return
	}

	result, err := h.briefService.GenerateBrief(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "BRIEF_UNAVAILABLE",
				"message": "Failed to regenerate brief",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
