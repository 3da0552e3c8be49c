package ledger

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/anti-app/antiapp-backend/internal/db"
	"github.com/anti-app/antiapp-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, balance int64) models.User {
	t.Helper()
	user := models.User{Email: "member@antiapp.test", Password: "hash", AnticoinBalance: 0}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if balance > 0 {
		errTx := conn.Transaction(func(tx *gorm.DB) error {
			_, errCredit := Credit(tx, user.ID, balance, Entry{Type: models.TxTypeEarn, Description: "seed"})
			return errCredit
		})
		if errTx != nil {
			t.Fatalf("seed balance: %v", errTx)
		}
	}
	return user
}

func loadBalance(t *testing.T, conn *gorm.DB, userID uint64) int64 {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, userID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	return user.AnticoinBalance
}

func TestCreditMovesCachedBalanceAndLedgerTogether(t *testing.T) {
	conn := openTestDB(t)
	user := createUser(t, conn, 0)

	errTx := conn.Transaction(func(tx *gorm.DB) error {
		_, errCredit := Credit(tx, user.ID, 90, Entry{
			Type: models.TxTypeEarn, RefKind: models.TxRefCheckin, RefID: 1, Description: "session reward",
		})
		return errCredit
	})
	if errTx != nil {
		t.Fatalf("credit: %v", errTx)
	}

	if got := loadBalance(t, conn, user.ID); got != 90 {
		t.Fatalf("expected cached balance 90, got %d", got)
	}
	sum, errSum := ReconstructBalance(conn, user.ID)
	if errSum != nil {
		t.Fatalf("reconstruct: %v", errSum)
	}
	if sum != 90 {
		t.Fatalf("expected ledger sum 90, got %d", sum)
	}
}

func TestDebitRejectedBeforeAnyWriteWhenBalanceShort(t *testing.T) {
	conn := openTestDB(t)
	user := createUser(t, conn, 0)

	errTx := conn.Transaction(func(tx *gorm.DB) error {
		_, errDebit := Debit(tx, user.ID, 100, Entry{Type: models.TxTypeSpend, Description: "reward redemption"})
		return errDebit
	})
	if !errors.Is(errTx, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", errTx)
	}

	if got := loadBalance(t, conn, user.ID); got != 0 {
		t.Fatalf("expected untouched balance 0, got %d", got)
	}
	var rows int64
	if errCount := conn.Model(&models.CoinTransaction{}).Where("user_id = ?", user.ID).Count(&rows).Error; errCount != nil {
		t.Fatalf("count rows: %v", errCount)
	}
	if rows != 0 {
		t.Fatalf("expected no ledger rows after rejected debit, got %d", rows)
	}
}

func TestSpendRowRoundTripsThroughReconstruction(t *testing.T) {
	conn := openTestDB(t)
	user := createUser(t, conn, 120)

	errTx := conn.Transaction(func(tx *gorm.DB) error {
		_, errDebit := Debit(tx, user.ID, 50, Entry{
			Type: models.TxTypeSpend, RefKind: models.TxRefReward, RefID: 2, Description: "Redeemed: Free Coffee",
		})
		return errDebit
	})
	if errTx != nil {
		t.Fatalf("debit: %v", errTx)
	}

	var row models.CoinTransaction
	if errFind := conn.Where("user_id = ? AND type = ?", user.ID, models.TxTypeSpend).First(&row).Error; errFind != nil {
		t.Fatalf("load spend row: %v", errFind)
	}
	if row.Amount != -50 {
		t.Fatalf("expected stored amount -50, got %d", row.Amount)
	}

	sum, errSum := ReconstructBalance(conn, user.ID)
	if errSum != nil {
		t.Fatalf("reconstruct: %v", errSum)
	}
	if sum != 70 {
		t.Fatalf("expected reconstructed balance 70, got %d", sum)
	}
	if got := loadBalance(t, conn, user.ID); got != sum {
		t.Fatalf("cached balance %d diverged from ledger sum %d", got, sum)
	}
}

func TestSequentialCreditsSumWithoutLostUpdates(t *testing.T) {
	conn := openTestDB(t)
	user := createUser(t, conn, 0)

	// Two settlements that both observed the same starting balance; the
	// delta-based writes must still sum.
	for _, amount := range []int64{30, 45} {
		errTx := conn.Transaction(func(tx *gorm.DB) error {
			_, errCredit := Credit(tx, user.ID, amount, Entry{Type: models.TxTypeEarn, Description: "session reward"})
			return errCredit
		})
		if errTx != nil {
			t.Fatalf("credit %d: %v", amount, errTx)
		}
	}

	if got := loadBalance(t, conn, user.ID); got != 75 {
		t.Fatalf("expected summed balance 75, got %d", got)
	}
}

func TestAttachChainRefOnlyFillsEmptyReference(t *testing.T) {
	conn := openTestDB(t)
	user := createUser(t, conn, 0)

	var rowID uint64
	errTx := conn.Transaction(func(tx *gorm.DB) error {
		row, errCredit := Credit(tx, user.ID, 10, Entry{Type: models.TxTypeEarn, Description: "session reward"})
		if errCredit != nil {
			return errCredit
		}
		rowID = row.ID
		return nil
	})
	if errTx != nil {
		t.Fatalf("credit: %v", errTx)
	}

	if errAttach := AttachChainRef(conn, rowID, "0xabc"); errAttach != nil {
		t.Fatalf("attach: %v", errAttach)
	}
	if errAttach := AttachChainRef(conn, rowID, "0xdef"); errAttach != nil {
		t.Fatalf("second attach: %v", errAttach)
	}

	var row models.CoinTransaction
	if errFind := conn.First(&row, rowID).Error; errFind != nil {
		t.Fatalf("load row: %v", errFind)
	}
	if row.BlockchainTxID == nil || *row.BlockchainTxID != "0xabc" {
		t.Fatalf("expected first chain ref to stick, got %v", row.BlockchainTxID)
	}
}
