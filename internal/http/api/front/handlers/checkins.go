package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/session"
)

// CheckinHandler handles timed session endpoints.
type CheckinHandler struct {
	sessions *session.Service
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(sessions *session.Service) *CheckinHandler {
	return &CheckinHandler{sessions: sessions}
}

// checkinDTO defines the session response payload.
type checkinDTO struct {
	ID              uint64     `json:"id"`
	CafeID          uint64     `json:"cafe_id"`
	CafeName        string     `json:"cafe_name,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int64      `json:"duration_minutes"`
	CostCents       int64      `json:"cost_cents"`
	CoinsEarned     int64      `json:"coins_earned"`
	BlockchainTxID  *string    `json:"blockchain_tx_id"`
}

func newCheckinDTO(checkin *models.Checkin) checkinDTO {
	dto := checkinDTO{
		ID:              checkin.ID,
		CafeID:          checkin.CafeID,
		StartTime:       checkin.StartTime,
		EndTime:         checkin.EndTime,
		DurationMinutes: checkin.DurationMinutes,
		CostCents:       checkin.CostCents,
		CoinsEarned:     checkin.CoinsEarned,
		BlockchainTxID:  checkin.BlockchainTxID,
	}
	if checkin.Cafe != nil {
		dto.CafeName = checkin.Cafe.Name
	}
	return dto
}

// startCheckinRequest defines the request body for starting a session.
type startCheckinRequest struct {
	CafeID uint64 `json:"cafe_id"`
}

// Start opens a timed session at a cafe.
func (h *CheckinHandler) Start(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body startCheckinRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CafeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id is required"})
		return
	}

	checkin, errStart := h.sessions.Start(c.Request.Context(), userID, body.CafeID)
	if errStart != nil {
		switch {
		case errors.Is(errStart, session.ErrCafeUnavailable):
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
		case errors.Is(errStart, session.ErrAlreadyCheckedIn):
			c.JSON(http.StatusConflict, gin.H{"error": "an active check-in already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "check-in failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkin": newCheckinDTO(checkin)})
}

// Live returns the open session with its accrued cost and reward, or an
// empty payload when none is open.
func (h *CheckinHandler) Live(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, errLive := h.sessions.Live(c.Request.Context(), userID)
	if errLive != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if status == nil {
		c.JSON(http.StatusOK, gin.H{"checkin": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkin":         newCheckinDTO(status.Checkin),
		"elapsed_minutes": status.ElapsedMinutes,
		"accrued_cost":    status.AccruedCost,
		"accrued_coins":   status.AccruedCoins,
	})
}

// Checkout settles the open session. Retrying a completed checkout
// replays the settled result instead of failing.
func (h *CheckinHandler) Checkout(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	settlement, errCheckout := h.sessions.Checkout(c.Request.Context(), userID)
	if errCheckout != nil {
		switch {
		case errors.Is(errCheckout, session.ErrNoActiveCheckin):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active check-in"})
		case errors.Is(errCheckout, session.ErrSettlementInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "settlement already in progress"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		}
		return
	}

	payload := gin.H{
		"checkin":          newCheckinDTO(settlement.Checkin),
		"duration_minutes": settlement.DurationMinutes,
		"cost_cents":       settlement.CostCents,
		"coins_earned":     settlement.CoinsEarned,
		"already_settled":  settlement.AlreadySettled,
	}
	if settlement.ChainStatus != "" {
		payload["chain_status"] = settlement.ChainStatus
	}
	c.JSON(http.StatusOK, payload)
}
