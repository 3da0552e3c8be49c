package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// SponsorHandler handles partner management endpoints.
type SponsorHandler struct {
	db *gorm.DB
}

// NewSponsorHandler constructs a SponsorHandler.
func NewSponsorHandler(db *gorm.DB) *SponsorHandler {
	return &SponsorHandler{db: db}
}

// sponsorRequest defines the request body for partner create and update.
type sponsorRequest struct {
	Name        *string `json:"name"`
	LogoURL     *string `json:"logo_url"`
	WebsiteURL  *string `json:"website_url"`
	Tier        *string `json:"tier"`
	Description *string `json:"description"`
}

// List returns all partners.
func (h *SponsorHandler) List(c *gin.Context) {
	var sponsors []models.Sponsor
	if errFind := h.db.WithContext(c.Request.Context()).Order("tier ASC, name ASC").Find(&sponsors).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsors": sponsors})
}

// Create adds a partner.
func (h *SponsorHandler) Create(c *gin.Context) {
	var body sponsorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if body.LogoURL == nil || strings.TrimSpace(*body.LogoURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo_url is required"})
		return
	}

	sponsor := models.Sponsor{Name: strings.TrimSpace(*body.Name), LogoURL: strings.TrimSpace(*body.LogoURL)}
	applySponsorRequest(&sponsor, body)
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&sponsor).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "sponsor already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sponsor": sponsor})
}

// Update edits a partner.
func (h *SponsorHandler) Update(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sponsor id"})
		return
	}

	var body sponsorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var sponsor models.Sponsor
	if errFind := h.db.WithContext(c.Request.Context()).First(&sponsor, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sponsor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	applySponsorRequest(&sponsor, body)
	if errSave := h.db.WithContext(c.Request.Context()).Save(&sponsor).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
}

// Delete removes a partner.
func (h *SponsorHandler) Delete(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sponsor id"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.Sponsor{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "sponsor not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func applySponsorRequest(sponsor *models.Sponsor, body sponsorRequest) {
	if body.Name != nil {
		sponsor.Name = strings.TrimSpace(*body.Name)
	}
	if body.LogoURL != nil {
		sponsor.LogoURL = strings.TrimSpace(*body.LogoURL)
	}
	if body.WebsiteURL != nil {
		sponsor.WebsiteURL = *body.WebsiteURL
	}
	if body.Tier != nil {
		sponsor.Tier = *body.Tier
	}
	if body.Description != nil {
		sponsor.Description = *body.Description
	}
}
