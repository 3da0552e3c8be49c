package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// TransactionHandler handles ledger history endpoints.
type TransactionHandler struct {
	db *gorm.DB
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

// transactionDTO defines the ledger row response payload.
type transactionDTO struct {
	ID             uint64    `json:"id"`
	Amount         int64     `json:"amount"`
	Type           string    `json:"type"`
	RefKind        string    `json:"ref_kind,omitempty"`
	RefID          uint64    `json:"ref_id,omitempty"`
	Description    string    `json:"description"`
	BlockchainTxID *string   `json:"blockchain_tx_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func newTransactionDTO(row models.CoinTransaction) transactionDTO {
	return transactionDTO{
		ID:             row.ID,
		Amount:         row.Amount,
		Type:           row.Type,
		RefKind:        row.RefKind,
		RefID:          row.RefID,
		Description:    row.Description,
		BlockchainTxID: row.BlockchainTxID,
		CreatedAt:      row.CreatedAt,
	}
}

// List returns the member's ledger rows, newest first, with the cached
// balance and total row count for pagination.
func (h *TransactionHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.CoinTransaction{}).
		Where("user_id = ?", userID)
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var rows []models.CoinTransaction
	if errFind := query.Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]transactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newTransactionDTO(row))
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": out,
		"balance":      user.AnticoinBalance,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}
