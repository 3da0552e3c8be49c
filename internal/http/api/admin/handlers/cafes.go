package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/cache"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// CafeHandler handles venue management endpoints.
type CafeHandler struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCafeHandler constructs a CafeHandler.
func NewCafeHandler(db *gorm.DB, c *cache.Cache) *CafeHandler {
	return &CafeHandler{db: db, cache: c}
}

// cafeRequest defines the request body for venue create and update.
// Pointer fields distinguish absent keys from explicit zero values.
type cafeRequest struct {
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	Location        *string         `json:"location"`
	Address         *string         `json:"address"`
	ImageURL        *string         `json:"image_url"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	HourlyRateCents *int64          `json:"hourly_rate_cents"`
	CoinRate        *int64          `json:"coin_rate"`
	SeatingCapacity *int            `json:"seating_capacity"`
	WifiStrength    *int            `json:"wifi_strength"`
	NoiseLevel      *int            `json:"noise_level"`
	PowerOutlets    *bool           `json:"power_outlets"`
	Amenities       json.RawMessage `json:"amenities"`
	OpenHours       json.RawMessage `json:"open_hours"`
	Rating          *float64        `json:"rating"`
	Active          *bool           `json:"active"`
}

// List returns all venues including inactive ones.
func (h *CafeHandler) List(c *gin.Context) {
	var cafes []models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&cafes).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cafes": cafes})
}

// Create adds a venue.
func (h *CafeHandler) Create(c *gin.Context) {
	var body cafeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	cafe := models.Cafe{Name: strings.TrimSpace(*body.Name), CoinRate: 1, Active: true}
	applyCafeRequest(&cafe, body)
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&cafe).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create cafe failed"})
		return
	}

	h.invalidate(c, cafe.ID)
	c.JSON(http.StatusCreated, gin.H{"cafe": cafe})
}

// Update edits a venue.
func (h *CafeHandler) Update(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafe id"})
		return
	}

	var body cafeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var cafe models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).First(&cafe, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	applyCafeRequest(&cafe, body)
	if errSave := h.db.WithContext(c.Request.Context()).Save(&cafe).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.invalidate(c, cafe.ID)
	c.JSON(http.StatusOK, gin.H{"cafe": cafe})
}

// Delete deactivates a venue. Rows are kept so settled sessions retain
// their pricing context.
func (h *CafeHandler) Delete(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafe id"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Cafe{}).
		Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
		return
	}

	h.invalidate(c, id)
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *CafeHandler) invalidate(c *gin.Context, cafeID uint64) {
	h.cache.Invalidate(c.Request.Context(), cache.KeyCafeDirectory, cache.CafeKey(cafeID))
}

func applyCafeRequest(cafe *models.Cafe, body cafeRequest) {
	if body.Name != nil {
		cafe.Name = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		cafe.Description = *body.Description
	}
	if body.Location != nil {
		cafe.Location = *body.Location
	}
	if body.Address != nil {
		cafe.Address = *body.Address
	}
	if body.ImageURL != nil {
		cafe.ImageURL = *body.ImageURL
	}
	if body.Latitude != nil {
		cafe.Latitude = body.Latitude
	}
	if body.Longitude != nil {
		cafe.Longitude = body.Longitude
	}
	if body.HourlyRateCents != nil {
		cafe.HourlyRateCents = *body.HourlyRateCents
	}
	if body.CoinRate != nil {
		cafe.CoinRate = *body.CoinRate
	}
	if body.SeatingCapacity != nil {
		cafe.SeatingCapacity = *body.SeatingCapacity
	}
	if body.WifiStrength != nil {
		cafe.WifiStrength = *body.WifiStrength
	}
	if body.NoiseLevel != nil {
		cafe.NoiseLevel = *body.NoiseLevel
	}
	if body.PowerOutlets != nil {
		cafe.PowerOutlets = *body.PowerOutlets
	}
	if len(body.Amenities) > 0 && json.Valid(body.Amenities) {
		cafe.Amenities = datatypes.JSON(body.Amenities)
	}
	if len(body.OpenHours) > 0 && json.Valid(body.OpenHours) {
		cafe.OpenHours = datatypes.JSON(body.OpenHours)
	}
	if body.Rating != nil {
		cafe.Rating = *body.Rating
	}
	if body.Active != nil {
		cafe.Active = *body.Active
	}
}
