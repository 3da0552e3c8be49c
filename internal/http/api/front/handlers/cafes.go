package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/cache"
	dbpkg "github.com/anti-app/antiapp-backend/internal/db"
	"github.com/anti-app/antiapp-backend/internal/models"
)

const cafeDirectoryTTL = 5 * time.Minute

// CafeHandler handles the public venue directory.
type CafeHandler struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCafeHandler constructs a CafeHandler.
func NewCafeHandler(db *gorm.DB, c *cache.Cache) *CafeHandler {
	return &CafeHandler{db: db, cache: c}
}

// cafeDTO defines the venue response payload.
type cafeDTO struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	Address         string          `json:"address"`
	ImageURL        string          `json:"image_url"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	HourlyRateCents int64           `json:"hourly_rate_cents"`
	CoinRate        int64           `json:"coin_rate"`
	SeatingCapacity int             `json:"seating_capacity"`
	WifiStrength    int             `json:"wifi_strength"`
	NoiseLevel      int             `json:"noise_level"`
	PowerOutlets    bool            `json:"power_outlets"`
	Amenities       json.RawMessage `json:"amenities"`
	OpenHours       json.RawMessage `json:"open_hours"`
	Rating          float64         `json:"rating"`
}

func newCafeDTO(cafe models.Cafe) cafeDTO {
	amenities := json.RawMessage(cafe.Amenities)
	if len(amenities) == 0 {
		amenities = json.RawMessage("[]")
	}
	openHours := json.RawMessage(cafe.OpenHours)
	if len(openHours) == 0 {
		openHours = json.RawMessage("{}")
	}
	return cafeDTO{
		ID:              cafe.ID,
		Name:            cafe.Name,
		Description:     cafe.Description,
		Location:        cafe.Location,
		Address:         cafe.Address,
		ImageURL:        cafe.ImageURL,
		Latitude:        cafe.Latitude,
		Longitude:       cafe.Longitude,
		HourlyRateCents: cafe.HourlyRateCents,
		CoinRate:        cafe.CoinRate,
		SeatingCapacity: cafe.SeatingCapacity,
		WifiStrength:    cafe.WifiStrength,
		NoiseLevel:      cafe.NoiseLevel,
		PowerOutlets:    cafe.PowerOutlets,
		Amenities:       amenities,
		OpenHours:       openHours,
		Rating:          cafe.Rating,
	}
}

// List returns active venues, optionally filtered by a search term. The
// unfiltered directory is served from cache when available.
func (h *CafeHandler) List(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))

	if search == "" {
		var cached []cafeDTO
		if hit, errGet := h.cache.GetJSON(c.Request.Context(), cache.KeyCafeDirectory, &cached); errGet == nil && hit {
			c.JSON(http.StatusOK, gin.H{"cafes": cached})
			return
		}
	}

	query := h.db.WithContext(c.Request.Context()).Where("active = ?", true)
	if search != "" {
		pattern := dbpkg.NormalizeLikePattern(h.db, "%"+search+"%")
		nameExpr := dbpkg.CaseInsensitiveLikeExpr(h.db, "name")
		locationExpr := dbpkg.CaseInsensitiveLikeExpr(h.db, "location")
		query = query.Where(h.db.Where(nameExpr, pattern).Or(locationExpr, pattern))
	}

	var cafes []models.Cafe
	if errFind := query.Order("rating DESC, name ASC").Find(&cafes).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]cafeDTO, 0, len(cafes))
	for _, cafe := range cafes {
		out = append(out, newCafeDTO(cafe))
	}

	if search == "" {
		// Best effort; serving from the database is always fine.
		_ = h.cache.SetJSON(c.Request.Context(), cache.KeyCafeDirectory, out, cafeDirectoryTTL)
	}
	c.JSON(http.StatusOK, gin.H{"cafes": out})
}

// Get returns one venue's detail.
func (h *CafeHandler) Get(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cafe id"})
		return
	}

	var cached cafeDTO
	if hit, errGet := h.cache.GetJSON(c.Request.Context(), cache.CafeKey(id), &cached); errGet == nil && hit {
		c.JSON(http.StatusOK, gin.H{"cafe": cached})
		return
	}

	var cafe models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND active = ?", id, true).
		First(&cafe).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
		return
	}

	dto := newCafeDTO(cafe)
	_ = h.cache.SetJSON(c.Request.Context(), cache.CafeKey(id), dto, cafeDirectoryTTL)
	c.JSON(http.StatusOK, gin.H{"cafe": dto})
}
