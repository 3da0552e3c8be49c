package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// DashboardHandler serves operator KPIs.
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// KPI returns headline counters for the operator dashboard.
func (h *DashboardHandler) KPI(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var totalUsers int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var activeCheckins int64
	if errCount := h.db.WithContext(ctx).Model(&models.Checkin{}).
		Where("end_time IS NULL").Count(&activeCheckins).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var coinsIssued int64
	if errSum := h.db.WithContext(ctx).Model(&models.CoinTransaction{}).
		Where("amount > 0").
		Select("COALESCE(SUM(amount), 0)").Scan(&coinsIssued).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var coinsSpent int64
	if errSum := h.db.WithContext(ctx).Model(&models.CoinTransaction{}).
		Where("amount < 0").
		Select("COALESCE(SUM(-amount), 0)").Scan(&coinsSpent).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var bookingsToday int64
	if errCount := h.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_date = ? AND status <> ?", today, models.BookingStatusCancelled).
		Count(&bookingsToday).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var upcomingEvents int64
	if errCount := h.db.WithContext(ctx).Model(&models.Event{}).
		Where("event_date >= ?", today).Count(&upcomingEvents).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":       totalUsers,
		"active_checkins":   activeCheckins,
		"coins_issued":      coinsIssued,
		"coins_spent":       coinsSpent,
		"coins_outstanding": coinsIssued - coinsSpent,
		"bookings_today":    bookingsToday,
		"upcoming_events":   upcomingEvents,
	})
}

// activityUserDTO identifies the member behind an activity row.
type activityUserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newActivityUserDTO(user *models.User) *activityUserDTO {
	if user == nil {
		return nil
	}
	return &activityUserDTO{ID: user.ID, Name: user.Name, Email: user.Email}
}

// activityCheckinDTO is a settled session on the activity feed.
type activityCheckinDTO struct {
	ID              uint64           `json:"id"`
	User            *activityUserDTO `json:"user"`
	CafeName        string           `json:"cafe_name"`
	EndTime         *time.Time       `json:"end_time"`
	DurationMinutes int64            `json:"duration_minutes"`
	CostCents       int64            `json:"cost_cents"`
	CoinsEarned     int64            `json:"coins_earned"`
}

// activityTransactionDTO is a ledger row on the activity feed.
type activityTransactionDTO struct {
	ID          uint64           `json:"id"`
	User        *activityUserDTO `json:"user"`
	Amount      int64            `json:"amount"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RecentActivity returns the latest settled sessions and ledger rows.
func (h *DashboardHandler) RecentActivity(c *gin.Context) {
	ctx := c.Request.Context()

	var checkins []models.Checkin
	if errFind := h.db.WithContext(ctx).
		Preload("Cafe").Preload("User").
		Where("end_time IS NOT NULL").
		Order("end_time DESC").
		Limit(10).
		Find(&checkins).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var transactions []models.CoinTransaction
	if errFind := h.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&transactions).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	checkinOut := make([]activityCheckinDTO, 0, len(checkins))
	for i := range checkins {
		row := &checkins[i]
		dto := activityCheckinDTO{
			ID:              row.ID,
			User:            newActivityUserDTO(row.User),
			EndTime:         row.EndTime,
			DurationMinutes: row.DurationMinutes,
			CostCents:       row.CostCents,
			CoinsEarned:     row.CoinsEarned,
		}
		if row.Cafe != nil {
			dto.CafeName = row.Cafe.Name
		}
		checkinOut = append(checkinOut, dto)
	}

	transactionOut := make([]activityTransactionDTO, 0, len(transactions))
	for i := range transactions {
		row := &transactions[i]
		transactionOut = append(transactionOut, activityTransactionDTO{
			ID:          row.ID,
			User:        newActivityUserDTO(row.User),
			Amount:      row.Amount,
			Type:        row.Type,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"checkins":     checkinOut,
		"transactions": transactionOut,
	})
}
