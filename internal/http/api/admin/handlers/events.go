package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// EventHandler handles event management endpoints.
type EventHandler struct {
	db *gorm.DB
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

// eventRequest defines the request body for event create and update.
type eventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	ImageURL        *string    `json:"image_url"`
	CafeID          *uint64    `json:"cafe_id"`
	EventDate       *time.Time `json:"event_date"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	AnticoinCost    *int64     `json:"anticoin_cost"`
	CoinReward      *int64     `json:"coin_reward"`
	SeatLimit       *int       `json:"seat_limit"`
	Organizer       *string    `json:"organizer"`
	OrganizerWallet *string    `json:"organizer_wallet"`
	IsFeatured      *bool      `json:"is_featured"`
}

// List returns all events, newest first.
func (h *EventHandler) List(c *gin.Context) {
	var events []models.Event
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Order("event_date DESC, start_time DESC").
		Find(&events).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Create adds an event.
func (h *EventHandler) Create(c *gin.Context) {
	var body eventRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if body.StartTime == nil || body.EndTime == nil || !body.EndTime.After(*body.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time and end_time are required and must be ordered"})
		return
	}
	if body.AnticoinCost != nil && *body.AnticoinCost < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anticoin_cost must not be negative"})
		return
	}

	event := models.Event{Title: strings.TrimSpace(*body.Title)}
	applyEventRequest(&event, body)
	if event.EventDate.IsZero() {
		event.EventDate = event.StartTime.UTC().Truncate(24 * time.Hour)
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&event).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create event failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// Update edits an event.
func (h *EventHandler) Update(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var body eventRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var event models.Event
	if errFind := h.db.WithContext(c.Request.Context()).First(&event, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	applyEventRequest(&event, body)
	if !event.EndTime.After(event.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be after start_time"})
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).Save(&event).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// Delete removes an event and its registrations. Seats already paid are
// refunded through the ledger.
func (h *EventHandler) Delete(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if errFind := tx.First(&event, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			}
			return errFind
		}

		if event.AnticoinCost > 0 {
			var attendees []models.EventAttendee
			if errFind := tx.Where("event_id = ?", id).Find(&attendees).Error; errFind != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
				return errFind
			}
			for _, attendee := range attendees {
				if errRefund := refundAttendee(tx, event, attendee.UserID); errRefund != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "refund failed"})
					return errRefund
				}
			}
		}

		if errDelete := tx.Where("event_id = ?", id).Delete(&models.EventAttendee{}).Error; errDelete != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return errDelete
		}
		if errDelete := tx.Delete(&models.Event{}, id).Error; errDelete != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return errDelete
		}
		return nil
	})
	if errTx != nil {
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func refundAttendee(tx *gorm.DB, event models.Event, userID uint64) error {
	_, errCredit := ledger.Credit(tx, userID, event.AnticoinCost, ledger.Entry{
		Type:        models.TxTypeEarn,
		RefKind:     models.TxRefEvent,
		RefID:       event.ID,
		Description: fmt.Sprintf("Event cancelled: %s", event.Title),
	})
	return errCredit
}

func applyEventRequest(event *models.Event, body eventRequest) {
	if body.Title != nil {
		event.Title = strings.TrimSpace(*body.Title)
	}
	if body.Description != nil {
		event.Description = *body.Description
	}
	if body.Location != nil {
		event.Location = *body.Location
	}
	if body.ImageURL != nil {
		event.ImageURL = *body.ImageURL
	}
	if body.CafeID != nil {
		if *body.CafeID == 0 {
			event.CafeID = nil
		} else {
			event.CafeID = body.CafeID
		}
	}
	if body.EventDate != nil {
		event.EventDate = body.EventDate.UTC().Truncate(24 * time.Hour)
	}
	if body.StartTime != nil {
		event.StartTime = body.StartTime.UTC()
	}
	if body.EndTime != nil {
		event.EndTime = body.EndTime.UTC()
	}
	if body.AnticoinCost != nil {
		event.AnticoinCost = *body.AnticoinCost
	}
	if body.CoinReward != nil {
		event.CoinReward = *body.CoinReward
	}
	if body.SeatLimit != nil {
		event.SeatLimit = *body.SeatLimit
	}
	if body.Organizer != nil {
		event.Organizer = *body.Organizer
	}
	if body.OrganizerWallet != nil {
		if *body.OrganizerWallet == "" {
			event.OrganizerWallet = nil
		} else {
			event.OrganizerWallet = body.OrganizerWallet
		}
	}
	if body.IsFeatured != nil {
		event.IsFeatured = *body.IsFeatured
	}
}
