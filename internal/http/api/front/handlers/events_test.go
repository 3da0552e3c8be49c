package handlers

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

func createTestEvent(t *testing.T, conn *gorm.DB, cost int64, seatLimit int) models.Event {
	t.Helper()
	start := time.Now().UTC().Add(48 * time.Hour)
	event := models.Event{
		Title:        "Focus Sprint",
		EventDate:    start.Truncate(24 * time.Hour),
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		AnticoinCost: cost,
		SeatLimit:    seatLimit,
	}
	if errCreate := conn.Create(&event).Error; errCreate != nil {
		t.Fatalf("create event: %v", errCreate)
	}
	return event
}

func eventParams(event models.Event) gin.Params {
	return gin.Params{{Key: "id", Value: strconv.FormatUint(event.ID, 10)}}
}

func TestRegisterPaidEventDebitsInSameTransaction(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "attendee@antiapp.test", 300)
	event := createTestEvent(t, conn, 120, 0)

	h := NewEventHandler(conn, nil)
	c, w := testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 180 {
		t.Fatalf("expected balance 180, got %d", balance)
	}

	var attendee models.EventAttendee
	if errFind := conn.Where("event_id = ? AND user_id = ?", event.ID, user.ID).
		First(&attendee).Error; errFind != nil {
		t.Fatalf("load attendee: %v", errFind)
	}
}

func TestRegisterRejectsInsufficientBalanceWithoutClaimingSeat(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "broke@antiapp.test", 10)
	event := createTestEvent(t, conn, 120, 0)

	h := NewEventHandler(conn, nil)
	c, w := testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Register(c)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d body=%s", w.Code, w.Body.String())
	}

	var attendees int64
	if errCount := conn.Model(&models.EventAttendee{}).
		Where("event_id = ?", event.ID).Count(&attendees).Error; errCount != nil {
		t.Fatalf("count attendees: %v", errCount)
	}
	if attendees != 0 {
		t.Fatalf("failed debit must not claim a seat, got %d attendees", attendees)
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 10 {
		t.Fatalf("balance must be untouched, got %d", balance)
	}
}

func TestRegisterEnforcesSeatLimit(t *testing.T) {
	conn := newTestDB(t)
	first := createTestUser(t, conn, "first@antiapp.test", 0)
	second := createTestUser(t, conn, "second@antiapp.test", 0)
	event := createTestEvent(t, conn, 0, 1)

	h := NewEventHandler(conn, nil)

	c, w := testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", first.ID)
	c.Params = eventParams(event)
	h.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("first registration: expected 201, got %d", w.Code)
	}

	c, w = testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", second.ID)
	c.Params = eventParams(event)
	h.Register(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 when full, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRegisterTwiceReturnsConflict(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "twice@antiapp.test", 0)
	event := createTestEvent(t, conn, 0, 0)

	h := NewEventHandler(conn, nil)

	c, w := testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	c, w = testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Register(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUnregisterRefundsPaidSeat(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "refund@antiapp.test", 200)
	event := createTestEvent(t, conn, 150, 0)

	h := NewEventHandler(conn, nil)

	c, w := testRequest(t, http.MethodPost, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 50 {
		t.Fatalf("expected balance 50 after registration, got %d", balance)
	}

	c, w = testRequest(t, http.MethodDelete, "/v0/front/events/1/register", "", user.ID)
	c.Params = eventParams(event)
	h.Unregister(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 200 {
		t.Fatalf("expected refunded balance 200, got %d", balance)
	}

	var rows int64
	if errCount := conn.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND ref_kind = ?", user.ID, models.TxRefEvent).
		Count(&rows).Error; errCount != nil {
		t.Fatalf("count rows: %v", errCount)
	}
	if rows != 2 {
		t.Fatalf("expected spend plus refund rows, got %d", rows)
	}
}
