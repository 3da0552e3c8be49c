package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/chain"
	dbpkg "github.com/anti-app/antiapp-backend/internal/db"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// fakeSettler records mint calls and returns a canned receipt or error.
type fakeSettler struct {
	mu      sync.Mutex
	mints   int
	receipt *chain.Receipt
	err     error
}

func (f *fakeSettler) Mint(_ context.Context, _ int64, _ string) (*chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mints++
	return f.receipt, f.err
}

func (f *fakeSettler) Transfer(_ context.Context, _ string, _ int64, _ string) (*chain.Receipt, error) {
	return f.receipt, f.err
}

func (f *fakeSettler) mintCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mints
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUserAndCafe(t *testing.T, conn *gorm.DB) (models.User, models.Cafe) {
	t.Helper()
	user := models.User{Email: "member@antiapp.test", Password: "hash"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	cafe := models.Cafe{Name: "Deep Work Annex", HourlyRateCents: 600, CoinRate: 1, Active: true}
	if errCreate := conn.Create(&cafe).Error; errCreate != nil {
		t.Fatalf("create cafe: %v", errCreate)
	}
	return user, cafe
}

func newTestService(conn *gorm.DB, settler chain.Settler, at time.Time) *Service {
	svc := NewService(conn, settler, nil)
	svc.now = func() time.Time { return at }
	return svc
}

func TestStartRejectsSecondOpenSession(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	svc := newTestService(conn, nil, time.Now().UTC())

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("first start: %v", errStart)
	}
	_, errSecond := svc.Start(context.Background(), user.ID, cafe.ID)
	if !errors.Is(errSecond, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", errSecond)
	}
}

func TestStartRejectsInactiveCafe(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	if errUpdate := conn.Model(&models.Cafe{}).Where("id = ?", cafe.ID).Update("active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate cafe: %v", errUpdate)
	}
	svc := newTestService(conn, nil, time.Now().UTC())

	_, errStart := svc.Start(context.Background(), user.ID, cafe.ID)
	if !errors.Is(errStart, ErrCafeUnavailable) {
		t.Fatalf("expected ErrCafeUnavailable, got %v", errStart)
	}
}

func TestCheckoutSettlesCostCoinsAndBalance(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(conn, nil, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(90 * time.Minute) }

	settlement, errCheckout := svc.Checkout(context.Background(), user.ID)
	if errCheckout != nil {
		t.Fatalf("checkout: %v", errCheckout)
	}
	if settlement.AlreadySettled {
		t.Fatal("first checkout reported as replay")
	}
	if settlement.DurationMinutes != 90 {
		t.Fatalf("expected 90 minutes, got %d", settlement.DurationMinutes)
	}
	if settlement.CostCents != 900 {
		t.Fatalf("expected 900 cents, got %d", settlement.CostCents)
	}
	if settlement.CoinsEarned != 90 {
		t.Fatalf("expected 90 coins, got %d", settlement.CoinsEarned)
	}
	if settlement.Transaction == nil || settlement.Transaction.Amount != 90 {
		t.Fatalf("expected earn row of 90, got %+v", settlement.Transaction)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.AnticoinBalance != 90 {
		t.Fatalf("expected balance 90, got %d", reloaded.AnticoinBalance)
	}
}

func TestCheckoutTwiceCreditsOnce(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(conn, nil, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(60 * time.Minute) }

	first, errFirst := svc.Checkout(context.Background(), user.ID)
	if errFirst != nil {
		t.Fatalf("first checkout: %v", errFirst)
	}
	second, errSecond := svc.Checkout(context.Background(), user.ID)
	if errSecond != nil {
		t.Fatalf("second checkout: %v", errSecond)
	}
	if !second.AlreadySettled {
		t.Fatal("second checkout not reported as replay")
	}
	if second.DurationMinutes != first.DurationMinutes || second.CoinsEarned != first.CoinsEarned {
		t.Fatalf("replay diverged: first %+v second %+v", first, second)
	}

	var ledgerRows int64
	if errCount := conn.Model(&models.CoinTransaction{}).Where("user_id = ?", user.ID).Count(&ledgerRows).Error; errCount != nil {
		t.Fatalf("count ledger: %v", errCount)
	}
	if ledgerRows != 1 {
		t.Fatalf("expected a single ledger row, got %d", ledgerRows)
	}
	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.AnticoinBalance != 60 {
		t.Fatalf("expected balance 60 after replayed checkout, got %d", reloaded.AnticoinBalance)
	}
}

func TestCheckoutWithoutOpenSessionAndNoHistory(t *testing.T) {
	conn := openTestDB(t)
	user, _ := seedUserAndCafe(t, conn)
	svc := newTestService(conn, nil, time.Now().UTC())

	_, errCheckout := svc.Checkout(context.Background(), user.ID)
	if !errors.Is(errCheckout, ErrNoActiveCheckin) {
		t.Fatalf("expected ErrNoActiveCheckin, got %v", errCheckout)
	}
}

func TestCheckoutSurvivesSettlerFailure(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	settler := &fakeSettler{err: errors.New("rpc unreachable")}
	svc := newTestService(conn, settler, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(45 * time.Minute) }

	settlement, errCheckout := svc.Checkout(context.Background(), user.ID)
	if errCheckout != nil {
		t.Fatalf("checkout must not fail on mirror error: %v", errCheckout)
	}
	if settler.mintCalls() != 1 {
		t.Fatalf("expected one mint attempt, got %d", settler.mintCalls())
	}
	if settlement.Checkin.BlockchainTxID != nil {
		t.Fatalf("expected null chain ref, got %v", *settlement.Checkin.BlockchainTxID)
	}
	var row models.CoinTransaction
	if errFind := conn.Where("user_id = ?", user.ID).First(&row).Error; errFind != nil {
		t.Fatalf("load ledger row: %v", errFind)
	}
	if row.BlockchainTxID != nil {
		t.Fatal("ledger row must keep a null chain ref when the mirror fails")
	}
}

func TestCheckoutAttachesConfirmedChainRef(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	settler := &fakeSettler{receipt: &chain.Receipt{TxHash: "0xabc123", Status: chain.StatusConfirmed}}
	svc := newTestService(conn, settler, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(30 * time.Minute) }

	if _, errCheckout := svc.Checkout(context.Background(), user.ID); errCheckout != nil {
		t.Fatalf("checkout: %v", errCheckout)
	}

	var settled models.Checkin
	if errFind := conn.Where("user_id = ?", user.ID).First(&settled).Error; errFind != nil {
		t.Fatalf("load checkin: %v", errFind)
	}
	if settled.BlockchainTxID == nil || *settled.BlockchainTxID != "0xabc123" {
		t.Fatalf("expected chain ref on checkin, got %v", settled.BlockchainTxID)
	}
	var row models.CoinTransaction
	if errFind := conn.Where("user_id = ?", user.ID).First(&row).Error; errFind != nil {
		t.Fatalf("load ledger row: %v", errFind)
	}
	if row.BlockchainTxID == nil || *row.BlockchainTxID != "0xabc123" {
		t.Fatalf("expected chain ref on ledger row, got %v", row.BlockchainTxID)
	}
}

func TestCheckoutIgnoresTimedOutReceipt(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	settler := &fakeSettler{receipt: &chain.Receipt{TxHash: "0xslow", Status: chain.StatusTimedOut}}
	svc := newTestService(conn, settler, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(30 * time.Minute) }

	if _, errCheckout := svc.Checkout(context.Background(), user.ID); errCheckout != nil {
		t.Fatalf("checkout: %v", errCheckout)
	}

	var settled models.Checkin
	if errFind := conn.Where("user_id = ?", user.ID).First(&settled).Error; errFind != nil {
		t.Fatalf("load checkin: %v", errFind)
	}
	if settled.BlockchainTxID != nil {
		t.Fatalf("unconfirmed receipt must not be attached, got %v", *settled.BlockchainTxID)
	}
}

func TestLiveAccruesOnDemand(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(conn, nil, start)

	if _, errStart := svc.Start(context.Background(), user.ID, cafe.ID); errStart != nil {
		t.Fatalf("start: %v", errStart)
	}
	svc.now = func() time.Time { return start.Add(25 * time.Minute) }

	status, errLive := svc.Live(context.Background(), user.ID)
	if errLive != nil {
		t.Fatalf("live: %v", errLive)
	}
	if status == nil || status.Checkin == nil {
		t.Fatal("expected a live session")
	}
	if status.ElapsedMinutes != 25 {
		t.Fatalf("expected 25 elapsed minutes, got %d", status.ElapsedMinutes)
	}
	if status.AccruedCost != 250 {
		t.Fatalf("expected 250 accrued cents, got %d", status.AccruedCost)
	}
	if status.AccruedCoins != 25 {
		t.Fatalf("expected 25 accrued coins, got %d", status.AccruedCoins)
	}
}

func TestLiveReturnsNothingWhenNoOpenSession(t *testing.T) {
	conn := openTestDB(t)
	user, _ := seedUserAndCafe(t, conn)
	svc := newTestService(conn, nil, time.Now().UTC())

	status, errLive := svc.Live(context.Background(), user.ID)
	if errLive != nil {
		t.Fatalf("live: %v", errLive)
	}
	if status != nil {
		t.Fatalf("expected nil status, got %+v", status)
	}
}

func TestStartTranslatesInsertRaceToAlreadyCheckedIn(t *testing.T) {
	conn := openTestDB(t)
	user, cafe := seedUserAndCafe(t, conn)
	svc := newTestService(conn, nil, time.Now().UTC())

	// Slip a rival open session in after the guard query but before the
	// insert, the way a second process would. The partial unique index
	// then rejects the insert and the conflict must surface as
	// ErrAlreadyCheckedIn, not a generic failure.
	injected := false
	errReg := conn.Callback().Create().Before("gorm:create").Register("rival_checkin", func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Checkin); !ok {
			return
		}
		injected = true
		rival := models.Checkin{UserID: user.ID, CafeID: cafe.ID, StartTime: time.Now().UTC()}
		if errCreate := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; errCreate != nil {
			t.Errorf("insert rival checkin: %v", errCreate)
		}
	})
	if errReg != nil {
		t.Fatalf("register callback: %v", errReg)
	}

	_, errStart := svc.Start(context.Background(), user.ID, cafe.ID)
	if !errors.Is(errStart, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", errStart)
	}
	if !injected {
		t.Fatal("rival session was never inserted")
	}
}
