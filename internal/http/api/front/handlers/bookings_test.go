package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anti-app/antiapp-backend/internal/models"
)

func TestCreateBookingComputesPriceServerSide(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "booker@antiapp.test", 0)
	cafe := createTestCafe(t, conn, "Quiet Corner", 800)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute)
	body := fmt.Sprintf(`{"cafe_id":%d,"start_time":%q,"duration_minutes":90,"total_cost_cents":1}`,
		cafe.ID, start.Format(time.RFC3339))

	h := NewBookingHandler(conn)
	c, w := testRequest(t, http.MethodPost, "/v0/front/bookings", body, user.ID)
	h.Create(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Booking bookingDTO `json:"booking"`
	}
	if errDecode := decodeBody(w, &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	// 90 minutes at 800 cents per hour is 1200 cents; the client-supplied
	// price field is ignored.
	if resp.Booking.TotalCostCents != 1200 {
		t.Fatalf("expected 1200 cents, got %d", resp.Booking.TotalCostCents)
	}
	if resp.Booking.Reference == "" {
		t.Fatal("expected a booking reference")
	}
	if resp.Booking.Status != models.BookingStatusConfirmed {
		t.Fatalf("expected confirmed, got %q", resp.Booking.Status)
	}
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "late@antiapp.test", 0)
	cafe := createTestCafe(t, conn, "Quiet Corner", 800)

	start := time.Now().UTC().Add(-time.Hour)
	body := fmt.Sprintf(`{"cafe_id":%d,"start_time":%q,"duration_minutes":60}`,
		cafe.ID, start.Format(time.RFC3339))

	h := NewBookingHandler(conn)
	c, w := testRequest(t, http.MethodPost, "/v0/front/bookings", body, user.ID)
	h.Create(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCancelBookingOnlyTouchesOwnRows(t *testing.T) {
	conn := newTestDB(t)
	owner := createTestUser(t, conn, "owner@antiapp.test", 0)
	other := createTestUser(t, conn, "other@antiapp.test", 0)
	cafe := createTestCafe(t, conn, "Quiet Corner", 800)

	booking := models.Booking{
		Reference:       "ref-cancel-1",
		UserID:          owner.ID,
		CafeID:          cafe.ID,
		BookingDate:     time.Now().UTC().Add(24 * time.Hour).Truncate(24 * time.Hour),
		StartTime:       time.Now().UTC().Add(24 * time.Hour),
		DurationMinutes: 60,
		TotalCostCents:  800,
		Status:          models.BookingStatusConfirmed,
	}
	if errCreate := conn.Create(&booking).Error; errCreate != nil {
		t.Fatalf("create booking: %v", errCreate)
	}

	h := NewBookingHandler(conn)
	params := gin.Params{{Key: "id", Value: strconv.FormatUint(booking.ID, 10)}}

	c, w := testRequest(t, http.MethodPost, "/v0/front/bookings/1/cancel", "", other.ID)
	c.Params = params
	h.Cancel(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign booking, got %d", w.Code)
	}

	c, w = testRequest(t, http.MethodPost, "/v0/front/bookings/1/cancel", "", owner.ID)
	c.Params = params
	h.Cancel(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded models.Booking
	if errFind := conn.First(&reloaded, booking.ID).Error; errFind != nil {
		t.Fatalf("reload booking: %v", errFind)
	}
	if reloaded.Status != models.BookingStatusCancelled {
		t.Fatalf("expected cancelled, got %q", reloaded.Status)
	}
}

func TestCancelSettledBookingRejected(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "done@antiapp.test", 0)
	cafe := createTestCafe(t, conn, "Quiet Corner", 800)

	booking := models.Booking{
		Reference:       "ref-done-1",
		UserID:          user.ID,
		CafeID:          cafe.ID,
		BookingDate:     time.Now().UTC().Truncate(24 * time.Hour),
		StartTime:       time.Now().UTC().Add(time.Hour),
		DurationMinutes: 60,
		TotalCostCents:  800,
		Status:          models.BookingStatusCompleted,
	}
	if errCreate := conn.Create(&booking).Error; errCreate != nil {
		t.Fatalf("create booking: %v", errCreate)
	}

	h := NewBookingHandler(conn)
	c, w := testRequest(t, http.MethodPost, "/v0/front/bookings/1/cancel", "", user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(booking.ID, 10)}}
	h.Cancel(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}
