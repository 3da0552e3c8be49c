package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anti-app/antiapp-backend/internal/chain"
	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// EventHandler handles community event endpoints.
type EventHandler struct {
	db      *gorm.DB
	settler chain.Settler
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(db *gorm.DB, settler chain.Settler) *EventHandler {
	return &EventHandler{db: db, settler: settler}
}

// eventDTO defines the event response payload.
type eventDTO struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	ImageURL      string    `json:"image_url"`
	CafeID        *uint64   `json:"cafe_id"`
	CafeName      string    `json:"cafe_name,omitempty"`
	EventDate     string    `json:"event_date"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	AnticoinCost  int64     `json:"anticoin_cost"`
	CoinReward    int64     `json:"coin_reward"`
	SeatLimit     int       `json:"seat_limit"`
	Organizer     string    `json:"organizer"`
	IsFeatured    bool      `json:"is_featured"`
	AttendeeCount int64     `json:"attendee_count"`
	Registered    bool      `json:"registered"`
}

func newEventDTO(event models.Event) eventDTO {
	dto := eventDTO{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Location:     event.Location,
		ImageURL:     event.ImageURL,
		CafeID:       event.CafeID,
		EventDate:    event.EventDate.Format("2006-01-02"),
		StartTime:    event.StartTime,
		EndTime:      event.EndTime,
		AnticoinCost: event.AnticoinCost,
		CoinReward:   event.CoinReward,
		SeatLimit:    event.SeatLimit,
		Organizer:    event.Organizer,
		IsFeatured:   event.IsFeatured,
	}
	if event.Cafe != nil {
		dto.CafeName = event.Cafe.Name
	}
	return dto
}

// List returns upcoming events with attendee counts and the member's
// registration state.
func (h *EventHandler) List(c *gin.Context) {
	userID := getUserID(c)

	query := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		Where("event_date >= ?", time.Now().UTC().Truncate(24*time.Hour))
	if c.Query("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}

	var events []models.Event
	if errFind := query.Order("event_date ASC, start_time ASC").Find(&events).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dto := newEventDTO(event)
		h.decorate(c, &dto, userID)
		out = append(out, dto)
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

// Get returns one event's detail.
func (h *EventHandler) Get(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var event models.Event
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Cafe").
		First(&event, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	dto := newEventDTO(event)
	h.decorate(c, &dto, getUserID(c))
	c.JSON(http.StatusOK, gin.H{"event": dto})
}

// decorate fills the attendee count and registration flag.
func (h *EventHandler) decorate(c *gin.Context, dto *eventDTO, userID uint64) {
	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.EventAttendee{}).
		Where("event_id = ?", dto.ID).Count(&count).Error; errCount == nil {
		dto.AttendeeCount = count
	}
	if userID != 0 {
		var attendee models.EventAttendee
		errFind := h.db.WithContext(c.Request.Context()).
			Where("event_id = ? AND user_id = ?", dto.ID, userID).
			First(&attendee).Error
		dto.Registered = errFind == nil
	}
}

// Register signs the member up for an event. Paid events debit the
// AntiCoin cost in the same transaction that claims the seat, so a full
// event or an insufficient balance leaves no partial state.
func (h *EventHandler) Register(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID := pathID(c, "id")
	if eventID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var (
		event models.Event
		spent *models.CoinTransaction
	)
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, eventID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			}
			return errFind
		}
		if event.EndTime.Before(time.Now().UTC()) {
			c.JSON(http.StatusConflict, gin.H{"error": "event already ended"})
			return errors.New("event ended")
		}

		var registered int64
		if errCount := tx.Model(&models.EventAttendee{}).
			Where("event_id = ?", eventID).Count(&registered).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return errCount
		}
		if event.SeatLimit > 0 && registered >= int64(event.SeatLimit) {
			c.JSON(http.StatusConflict, gin.H{"error": "event is full"})
			return errors.New("event full")
		}

		attendee := models.EventAttendee{EventID: eventID, UserID: userID}
		if errCreate := tx.Create(&attendee).Error; errCreate != nil {
			// The unique pair index rejects duplicate registrations.
			c.JSON(http.StatusConflict, gin.H{"error": "already registered"})
			return errCreate
		}

		if event.AnticoinCost > 0 {
			row, errDebit := ledger.Debit(tx, userID, event.AnticoinCost, ledger.Entry{
				Type:        models.TxTypeSpend,
				RefKind:     models.TxRefEvent,
				RefID:       eventID,
				Description: fmt.Sprintf("Event registration: %s", event.Title),
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
		}
		return nil
	})
	if errTx != nil {
		// Commit failures after a successful callback have no error
		// response written yet.
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	if spent != nil {
		h.mirrorSpend(c, &event, spent)
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered", "event_id": eventID})
}

// Unregister cancels a registration and refunds a paid seat.
func (h *EventHandler) Unregister(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID := pathID(c, "id")
	if eventID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if errFind := tx.First(&event, eventID).Error; errFind != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return errFind
		}
		if event.StartTime.Before(time.Now().UTC()) {
			c.JSON(http.StatusConflict, gin.H{"error": "event already started"})
			return errors.New("event started")
		}

		result := tx.Where("event_id = ? AND user_id = ?", eventID, userID).
			Delete(&models.EventAttendee{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return result.Error
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not registered"})
			return gorm.ErrRecordNotFound
		}

		if event.AnticoinCost > 0 {
			if _, errCredit := ledger.Credit(tx, userID, event.AnticoinCost, ledger.Entry{
				Type:        models.TxTypeEarn,
				RefKind:     models.TxRefEvent,
				RefID:       eventID,
				Description: fmt.Sprintf("Event refund: %s", event.Title),
			}); errCredit != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "refund failed"})
				return errCredit
			}
		}
		return nil
	})
	if errTx != nil {
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unregister failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unregistered", "event_id": eventID})
}

// mirrorSpend submits the post-commit chain mirror for a paid seat.
// Failures are absorbed; the registration has already succeeded.
func (h *EventHandler) mirrorSpend(c *gin.Context, event *models.Event, spent *models.CoinTransaction) {
	if h.settler == nil || event.OrganizerWallet == nil || *event.OrganizerWallet == "" {
		return
	}

	amount := -spent.Amount
	receipt, errTransfer := h.settler.Transfer(c.Request.Context(), *event.OrganizerWallet, amount,
		chain.TransferMemo(amount, *event.OrganizerWallet))
	if errTransfer != nil {
		log.WithError(errTransfer).WithField("event_id", event.ID).
			Warn("events: chain mirror failed, registration unaffected")
		return
	}
	if !receipt.Confirmed() {
		return
	}
	if errAttach := ledger.AttachChainRef(h.db.WithContext(c.Request.Context()), spent.ID, receipt.TxHash); errAttach != nil {
		log.WithError(errAttach).Warn("events: attach chain ref failed")
	}
}
