package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbpkg "github.com/anti-app/antiapp-backend/internal/db"
	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// UserHandler handles member management endpoints.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// adminUserDTO defines the member row payload for operators.
type adminUserDTO struct {
	ID              uint64  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	AnticoinBalance int64   `json:"anticoin_balance"`
	WalletAddress   *string `json:"wallet_address"`
	Disabled        bool    `json:"disabled"`
}

// List returns members, optionally filtered by a search term.
func (h *UserHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbpkg.NormalizeLikePattern(h.db, "%"+search+"%")
		emailExpr := dbpkg.CaseInsensitiveLikeExpr(h.db, "email")
		nameExpr := dbpkg.CaseInsensitiveLikeExpr(h.db, "name")
		query = query.Where(h.db.Where(emailExpr, pattern).Or(nameExpr, pattern))
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var users []models.User
	if errFind := query.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]adminUserDTO, 0, len(users))
	for _, user := range users {
		out = append(out, adminUserDTO{
			ID:              user.ID,
			Email:           user.Email,
			Name:            user.Name,
			AnticoinBalance: user.AnticoinBalance,
			WalletAddress:   user.WalletAddress,
			Disabled:        user.Disabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "total": total, "limit": limit, "offset": offset})
}

// setDisabledRequest defines the request body for toggling member access.
type setDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

// SetDisabled blocks or restores a member's access.
func (h *UserHandler) SetDisabled(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var body setDisabledRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).Update("disabled", body.Disabled)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "disabled": body.Disabled})
}

// BalanceAudit compares a member's cached balance against the sum of
// their ledger rows. The two must agree; a mismatch means a write
// bypassed the ledger.
func (h *UserHandler) BalanceAudit(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	reconstructed, errSum := ledger.ReconstructBalance(h.db.WithContext(c.Request.Context()), id)
	if errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       id,
		"cached":        user.AnticoinBalance,
		"reconstructed": reconstructed,
		"consistent":    user.AnticoinBalance == reconstructed,
	})
}
