package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// SponsorHandler serves the public partner listing.
type SponsorHandler struct {
	db *gorm.DB
}

// NewSponsorHandler constructs a SponsorHandler.
func NewSponsorHandler(db *gorm.DB) *SponsorHandler {
	return &SponsorHandler{db: db}
}

// sponsorDTO defines the partner response payload.
type sponsorDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	LogoURL     string `json:"logo_url"`
	WebsiteURL  string `json:"website_url"`
	Tier        string `json:"tier"`
	Description string `json:"description"`
}

// List returns all partners ordered by tier then name.
func (h *SponsorHandler) List(c *gin.Context) {
	var sponsors []models.Sponsor
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("tier ASC, name ASC").
		Find(&sponsors).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]sponsorDTO, 0, len(sponsors))
	for _, sponsor := range sponsors {
		out = append(out, sponsorDTO{
			ID:          sponsor.ID,
			Name:        sponsor.Name,
			LogoURL:     sponsor.LogoURL,
			WebsiteURL:  sponsor.WebsiteURL,
			Tier:        sponsor.Tier,
			Description: sponsor.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sponsors": out})
}
