package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

func TestRedeemDebitsBalanceAndAppendsLedgerRow(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "rich@antiapp.test", 500)

	var reward models.Reward
	if errFind := conn.Where("cost = ?", 100).First(&reward).Error; errFind != nil {
		t.Fatalf("load seeded reward: %v", errFind)
	}

	h := NewRewardHandler(conn, nil, "")
	c, w := testRequest(t, http.MethodPost, "/v0/front/rewards/1/redeem", "", user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(reward.ID, 10)}}
	h.Redeem(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 400 {
		t.Fatalf("expected balance 400, got %d", balance)
	}

	var row models.CoinTransaction
	if errFind := conn.Where("user_id = ? AND ref_kind = ?", user.ID, models.TxRefReward).
		First(&row).Error; errFind != nil {
		t.Fatalf("load spend row: %v", errFind)
	}
	if row.Amount != -100 || row.Type != models.TxTypeSpend {
		t.Fatalf("expected spend of -100, got %+v", row)
	}
}

func TestRedeemRejectsInsufficientBalanceBeforeAnyWrite(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "poor@antiapp.test", 50)

	h := NewRewardHandler(conn, nil, "")
	c, w := testRequest(t, http.MethodPost, "/v0/front/rewards/1/redeem", "", user.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Redeem(c)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d body=%s", w.Code, w.Body.String())
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 50 {
		t.Fatalf("balance must be untouched, got %d", balance)
	}

	var rows int64
	if errCount := conn.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND ref_kind = ?", user.ID, models.TxRefReward).
		Count(&rows).Error; errCount != nil {
		t.Fatalf("count rows: %v", errCount)
	}
	if rows != 0 {
		t.Fatalf("expected no spend rows, got %d", rows)
	}
}

func TestRedeemUnknownRewardReturnsNotFound(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "lost@antiapp.test", 500)

	h := NewRewardHandler(conn, nil, "")
	c, w := testRequest(t, http.MethodPost, "/v0/front/rewards/999/redeem", "", user.ID)
	c.Params = gin.Params{{Key: "id", Value: "999"}}
	h.Redeem(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRewardListOnlyShowsActiveItems(t *testing.T) {
	conn := newTestDB(t)
	if errUpdate := conn.Model(&models.Reward{}).Where("cost = ?", 500).
		Update("active", false).Error; errUpdate != nil {
		t.Fatalf("hide reward: %v", errUpdate)
	}

	h := NewRewardHandler(conn, nil, "")
	c, w := testRequest(t, http.MethodGet, "/v0/front/rewards", "", 0)
	h.List(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Rewards []rewardDTO `json:"rewards"`
	}
	if errDecode := decodeBody(w, &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Rewards) != 4 {
		t.Fatalf("expected 4 visible rewards, got %d", len(resp.Rewards))
	}
	for _, reward := range resp.Rewards {
		if reward.Cost == 500 {
			t.Fatal("hidden reward leaked into the catalog")
		}
	}
}

func TestRedeemReportsCommitFailure(t *testing.T) {
	conn := newTestDB(t)
	user := createTestUser(t, conn, "commit@antiapp.test", 500)

	var reward models.Reward
	if errFind := conn.Where("cost = ?", 100).First(&reward).Error; errFind != nil {
		t.Fatalf("load seeded reward: %v", errFind)
	}

	// Roll the transaction back underneath gorm after the last write so
	// the closure succeeds but the commit fails. The handler must still
	// produce an error response rather than an empty 200.
	tripped := false
	errReg := conn.Callback().Update().After("gorm:update").Register("break_commit", func(tx *gorm.DB) {
		if tripped || tx.Statement.Table != (models.User{}).TableName() {
			return
		}
		tripped = true
		if errExec := tx.Session(&gorm.Session{NewDB: true}).Exec("ROLLBACK").Error; errExec != nil {
			t.Errorf("force rollback: %v", errExec)
		}
	})
	if errReg != nil {
		t.Fatalf("register callback: %v", errReg)
	}

	h := NewRewardHandler(conn, nil, "")
	c, w := testRequest(t, http.MethodPost, "/v0/front/rewards/1/redeem", "", user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(reward.ID, 10)}}
	h.Redeem(c)

	if !tripped {
		t.Fatal("rollback was never injected")
	}
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", w.Code, w.Body.String())
	}
	if balance := loadUserBalance(t, conn, user.ID); balance != 500 {
		t.Fatalf("balance must be untouched after failed commit, got %d", balance)
	}
}
