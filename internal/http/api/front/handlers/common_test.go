package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbpkg "github.com/anti-app/antiapp-backend/internal/db"
	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func createTestUser(t *testing.T, conn *gorm.DB, email string, balance int64) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "hash", Name: "Test Member"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if balance > 0 {
		errTx := conn.Transaction(func(tx *gorm.DB) error {
			_, errCredit := ledger.Credit(tx, user.ID, balance, ledger.Entry{
				Type: models.TxTypeEarn, Description: "seed",
			})
			return errCredit
		})
		if errTx != nil {
			t.Fatalf("seed balance: %v", errTx)
		}
		user.AnticoinBalance = balance
	}
	return user
}

func createTestCafe(t *testing.T, conn *gorm.DB, name string, rateCents int64) models.Cafe {
	t.Helper()
	cafe := models.Cafe{Name: name, HourlyRateCents: rateCents, CoinRate: 1, Active: true}
	if errCreate := conn.Create(&cafe).Error; errCreate != nil {
		t.Fatalf("create cafe: %v", errCreate)
	}
	return cafe
}

// testRequest builds an authenticated gin context around a recorder.
func testRequest(t *testing.T, method, target, body string, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		c.Set("userID", userID)
	}
	return c, w
}

func decodeBody(w *httptest.ResponseRecorder, dest any) error {
	return json.Unmarshal(w.Body.Bytes(), dest)
}

func loadUserBalance(t *testing.T, conn *gorm.DB, userID uint64) int64 {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, userID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	return user.AnticoinBalance
}
