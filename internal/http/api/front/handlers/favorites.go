package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// FavoriteHandler handles saved-venue endpoints.
type FavoriteHandler struct {
	db *gorm.DB
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(db *gorm.DB) *FavoriteHandler {
	return &FavoriteHandler{db: db}
}

// List returns the member's saved venues.
func (h *FavoriteHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var favorites []models.Favorite
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]cafeDTO, 0, len(favorites))
	for _, fav := range favorites {
		if fav.Cafe == nil || !fav.Cafe.Active {
			continue
		}
		out = append(out, newCafeDTO(*fav.Cafe))
	}
	c.JSON(http.StatusOK, gin.H{"cafes": out})
}

// Add saves a venue to the member's favorites. Saving twice is a no-op.
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cafeID := pathID(c, "id")
	if cafeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafe id"})
		return
	}

	var cafe models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND active = ?", cafeID, true).
		First(&cafe).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	favorite := models.Favorite{UserID: userID, CafeID: cafeID}
	errCreate := h.db.WithContext(c.Request.Context()).Create(&favorite).Error
	if errCreate != nil && !errors.Is(errCreate, gorm.ErrDuplicatedKey) {
		// The unique pair index also surfaces as a generic constraint
		// error on some drivers; treat any conflict as already saved.
		var existing models.Favorite
		if errFind := h.db.WithContext(c.Request.Context()).
			Where("user_id = ? AND cafe_id = ?", userID, cafeID).
			First(&existing).Error; errFind != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Remove deletes a venue from the member's favorites.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cafeID := pathID(c, "id")
	if cafeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafe id"})
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND cafe_id = ?", userID, cafeID).
		Delete(&models.Favorite{}).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
