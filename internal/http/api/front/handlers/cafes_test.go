package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/anti-app/antiapp-backend/internal/models"
)

func TestCafeListFiltersBySearchTermCaseInsensitively(t *testing.T) {
	conn := newTestDB(t)
	createTestCafe(t, conn, "Roast House", 500)
	createTestCafe(t, conn, "Silent Library", 700)
	hidden := createTestCafe(t, conn, "Roast Annex", 600)
	if errUpdate := conn.Model(&models.Cafe{}).Where("id = ?", hidden.ID).
		Update("active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate cafe: %v", errUpdate)
	}

	h := NewCafeHandler(conn, nil)
	c, w := testRequest(t, http.MethodGet, "/v0/front/cafes?search=roast", "", 0)
	h.List(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Cafes []cafeDTO `json:"cafes"`
	}
	if errDecode := decodeBody(w, &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Cafes) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Cafes))
	}
	if resp.Cafes[0].Name != "Roast House" {
		t.Fatalf("expected Roast House, got %q", resp.Cafes[0].Name)
	}
}

func TestCafeGetHidesInactiveVenues(t *testing.T) {
	conn := newTestDB(t)
	cafe := createTestCafe(t, conn, "Closed Doors", 500)
	if errUpdate := conn.Model(&models.Cafe{}).Where("id = ?", cafe.ID).
		Update("active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate cafe: %v", errUpdate)
	}

	h := NewCafeHandler(conn, nil)
	c, w := testRequest(t, http.MethodGet, "/v0/front/cafes/1", "", 0)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(cafe.ID, 10)}}
	h.Get(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}
