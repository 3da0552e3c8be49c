package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// RewardHandler handles reward catalog management endpoints.
type RewardHandler struct {
	db *gorm.DB
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB) *RewardHandler {
	return &RewardHandler{db: db}
}

// rewardRequest defines the request body for reward create and update.
type rewardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Cost        *int64  `json:"cost"`
	Active      *bool   `json:"active"`
}

// List returns the full catalog including hidden items.
func (h *RewardHandler) List(c *gin.Context) {
	var rewards []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).Order("cost ASC").Find(&rewards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// Create adds a catalog item.
func (h *RewardHandler) Create(c *gin.Context) {
	var body rewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if body.Cost == nil || *body.Cost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost must be positive"})
		return
	}

	reward := models.Reward{Title: strings.TrimSpace(*body.Title), Cost: *body.Cost, Active: true}
	applyRewardRequest(&reward, body)
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&reward).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create reward failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reward": reward})
}

// Update edits a catalog item.
func (h *RewardHandler) Update(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id"})
		return
	}

	var body rewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Cost != nil && *body.Cost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost must be positive"})
		return
	}

	var reward models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).First(&reward, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	applyRewardRequest(&reward, body)
	if errSave := h.db.WithContext(c.Request.Context()).Save(&reward).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": reward})
}

// Delete hides a catalog item. Rows are kept so redemption history keeps
// its reference.
func (h *RewardHandler) Delete(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Reward{}).
		Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func applyRewardRequest(reward *models.Reward, body rewardRequest) {
	if body.Title != nil {
		reward.Title = strings.TrimSpace(*body.Title)
	}
	if body.Description != nil {
		reward.Description = *body.Description
	}
	if body.ImageURL != nil {
		reward.ImageURL = *body.ImageURL
	}
	if body.Cost != nil {
		reward.Cost = *body.Cost
	}
	if body.Active != nil {
		reward.Active = *body.Active
	}
}
