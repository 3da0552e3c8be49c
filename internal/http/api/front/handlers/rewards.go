package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/chain"
	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// RewardHandler handles the AntiCoin reward store.
type RewardHandler struct {
	db           *gorm.DB
	settler      chain.Settler
	treasuryAddr string
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB, settler chain.Settler, treasuryAddr string) *RewardHandler {
	return &RewardHandler{db: db, settler: settler, treasuryAddr: treasuryAddr}
}

// rewardDTO defines the catalog response payload.
type rewardDTO struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Cost        int64  `json:"cost"`
}

func newRewardDTO(reward models.Reward) rewardDTO {
	return rewardDTO{
		ID:          reward.ID,
		Title:       reward.Title,
		Description: reward.Description,
		ImageURL:    reward.ImageURL,
		Cost:        reward.Cost,
	}
}

// List returns the active reward catalog.
func (h *RewardHandler) List(c *gin.Context) {
	var rewards []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("active = ?", true).
		Order("cost ASC").
		Find(&rewards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]rewardDTO, 0, len(rewards))
	for _, reward := range rewards {
		out = append(out, newRewardDTO(reward))
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}

// Redeem spends AntiCoins on a catalog item. The debit is rejected
// before any state changes when the balance is short.
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	rewardID := pathID(c, "id")
	if rewardID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id"})
		return
	}

	var (
		reward models.Reward
		spent  *models.CoinTransaction
	)
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Where("id = ? AND active = ?", rewardID, true).
			First(&reward).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			}
			return errFind
		}

		row, errDebit := ledger.Debit(tx, userID, reward.Cost, ledger.Entry{
			Type:        models.TxTypeSpend,
			RefKind:     models.TxRefReward,
			RefID:       reward.ID,
			Description: fmt.Sprintf("Reward redemption: %s", reward.Title),
		})
		if errDebit != nil {
			if errors.Is(errDebit, ledger.ErrInsufficientBalance) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient anticoin balance"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "debit failed"})
			}
			return errDebit
		}
		spent = row
		return nil
	})
	if errTx != nil {
		// The commit itself can fail after the callback succeeded, in
		// which case no error response has been written yet.
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redeem failed"})
		}
		return
	}

	h.mirrorRedemption(c, reward, spent)
	c.JSON(http.StatusOK, gin.H{
		"status":      "redeemed",
		"reward":      newRewardDTO(reward),
		"transaction": gin.H{"id": spent.ID, "amount": spent.Amount},
	})
}

// mirrorRedemption submits the post-commit chain mirror toward the
// treasury address. Failures are absorbed.
func (h *RewardHandler) mirrorRedemption(c *gin.Context, reward models.Reward, spent *models.CoinTransaction) {
	if h.settler == nil || h.treasuryAddr == "" {
		return
	}

	receipt, errTransfer := h.settler.Transfer(c.Request.Context(), h.treasuryAddr, reward.Cost,
		chain.TransferMemo(reward.Cost, h.treasuryAddr))
	if errTransfer != nil {
		log.WithError(errTransfer).WithField("reward_id", reward.ID).
			Warn("rewards: chain mirror failed, redemption unaffected")
		return
	}
	if !receipt.Confirmed() {
		return
	}
	if errAttach := ledger.AttachChainRef(h.db.WithContext(c.Request.Context()), spent.ID, receipt.TxHash); errAttach != nil {
		log.WithError(errAttach).Warn("rewards: attach chain ref failed")
	}
}
