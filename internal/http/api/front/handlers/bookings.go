package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/session"
)

// BookingHandler handles seat reservation endpoints.
type BookingHandler struct {
	db *gorm.DB
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{db: db}
}

// bookingDTO defines the reservation response payload.
type bookingDTO struct {
	ID              uint64    `json:"id"`
	Reference       string    `json:"reference"`
	CafeID          uint64    `json:"cafe_id"`
	CafeName        string    `json:"cafe_name,omitempty"`
	BookingDate     string    `json:"booking_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalCostCents  int64     `json:"total_cost_cents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func newBookingDTO(booking models.Booking) bookingDTO {
	dto := bookingDTO{
		ID:              booking.ID,
		Reference:       booking.Reference,
		CafeID:          booking.CafeID,
		BookingDate:     booking.BookingDate.Format("2006-01-02"),
		StartTime:       booking.StartTime,
		EndTime:         booking.EndTime(),
		DurationMinutes: booking.DurationMinutes,
		TotalCostCents:  booking.TotalCostCents,
		Status:          booking.Status,
		CreatedAt:       booking.CreatedAt,
	}
	if booking.Cafe != nil {
		dto.CafeName = booking.Cafe.Name
	}
	return dto
}

// createBookingRequest defines the request body for reservations.
type createBookingRequest struct {
	CafeID          uint64    `json:"cafe_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Create reserves a seat. The price is computed server side from the
// cafe's current hourly rate.
func (h *BookingHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createBookingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CafeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id is required"})
		return
	}
	if body.DurationMinutes < 15 || body.DurationMinutes > 12*60 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be between 15 minutes and 12 hours"})
		return
	}
	start := body.StartTime.UTC()
	if start.Before(time.Now().UTC()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start time must be in the future"})
		return
	}

	var cafe models.Cafe
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND active = ?", body.CafeID, true).
		First(&cafe).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cafe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	booking := models.Booking{
		Reference:       uuid.NewString(),
		UserID:          userID,
		CafeID:          cafe.ID,
		BookingDate:     start.Truncate(24 * time.Hour),
		StartTime:       start,
		DurationMinutes: body.DurationMinutes,
		TotalCostCents:  session.CostCents(int64(body.DurationMinutes), cafe.HourlyRateCents),
		Status:          models.BookingStatusConfirmed,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&booking).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create booking failed"})
		return
	}
	booking.Cafe = &cafe
	c.JSON(http.StatusCreated, gin.H{"booking": newBookingDTO(booking)})
}

// List returns the member's reservations, newest first.
func (h *BookingHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if errFind := query.Order("start_time DESC").Find(&bookings).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, newBookingDTO(booking))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

// Cancel marks a pending or confirmed reservation as cancelled.
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var booking models.Booking
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		First(&booking).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		c.JSON(http.StatusConflict, gin.H{"error": "booking cannot be cancelled"})
		return
	}
	if booking.StartTime.Before(time.Now().UTC()) {
		c.JSON(http.StatusConflict, gin.H{"error": "booking already started"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&booking).
		Update("status", models.BookingStatusCancelled).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	booking.Status = models.BookingStatusCancelled
	c.JSON(http.StatusOK, gin.H{"booking": newBookingDTO(booking)})
}
