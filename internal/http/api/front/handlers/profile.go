package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/security"
)

// ProfileHandler handles member profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// userDTO defines the profile response payload.
type userDTO struct {
	ID              uint64          `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Bio             string          `json:"bio"`
	AvatarURL       string          `json:"avatar_url"`
	Skills          json.RawMessage `json:"skills"`
	WorkStyle       string          `json:"work_style"`
	AnticoinBalance int64           `json:"anticoin_balance"`
	WalletAddress   *string         `json:"wallet_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newUserDTO(user models.User) userDTO {
	skills := json.RawMessage(user.Skills)
	if len(skills) == 0 {
		skills = json.RawMessage("[]")
	}
	return userDTO{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Bio:             user.Bio,
		AvatarURL:       user.AvatarURL,
		Skills:          skills,
		WorkStyle:       user.WorkStyle,
		AnticoinBalance: user.AnticoinBalance,
		WalletAddress:   user.WalletAddress,
		CreatedAt:       user.CreatedAt,
	}
}

// Get returns the current member's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserDTO(user)})
}

// updateProfileRequest defines the request body for profile updates.
// Pointer fields distinguish absent keys from explicit clears.
type updateProfileRequest struct {
	Name      *string         `json:"name"`
	Bio       *string         `json:"bio"`
	AvatarURL *string         `json:"avatar_url"`
	Skills    json.RawMessage `json:"skills"`
	WorkStyle *string         `json:"work_style"`
}

// Update applies partial edits to the current member's profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body updateProfileRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Bio != nil {
		updates["bio"] = strings.TrimSpace(*body.Bio)
	}
	if body.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*body.AvatarURL)
	}
	if body.WorkStyle != nil {
		updates["work_style"] = strings.TrimSpace(*body.WorkStyle)
	}
	if len(body.Skills) > 0 {
		if !json.Valid(body.Skills) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "skills must be valid json"})
			return
		}
		updates["skills"] = datatypes.JSON(body.Skills)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", userID).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserDTO(user)})
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword verifies the old password and stores a new hash.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	newPassword := strings.TrimSpace(body.NewPassword)
	if len(newPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if !security.CheckPassword(user.Password, strings.TrimSpace(body.OldPassword)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid old password"})
		return
	}

	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&user).
		Update("password", hash).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// connectWalletRequest defines the request body for wallet connection.
type connectWalletRequest struct {
	Address string `json:"address"`
}

// ConnectWallet stores the member's wallet address for ledger mirroring.
func (h *ProfileHandler) ConnectWallet(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body connectWalletRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	address := strings.TrimSpace(body.Address)
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", userID).Update("wallet_address", address).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_address": address})
}

// DisconnectWallet clears the stored wallet address.
func (h *ProfileHandler) DisconnectWallet(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", userID).Update("wallet_address", nil).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
