// Package ledger owns every AntiCoin balance mutation. The cached
// counter on the user row is only ever moved by a SQL-expression delta in
// the same transaction as the ledger append, so concurrent flows cannot
// lose updates and the counter always equals the ledger sum.
package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// ErrInsufficientBalance is returned by Debit before any write when the
// locked balance cannot cover the amount.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// Entry describes provenance for a ledger row.
type Entry struct {
	Type           string
	RefKind        string
	RefID          uint64
	Description    string
	BlockchainTxID *string
}

// Credit appends a positive ledger row and increments the cached balance.
// tx must be a running transaction.
func Credit(tx *gorm.DB, userID uint64, amount int64, entry Entry) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger: credit amount must be positive, got %d", amount)
	}
	return apply(tx, userID, amount, entry)
}

// Debit appends a negative ledger row and decrements the cached balance.
// amount is the positive number of coins to remove; the stored row is
// negative. tx must be a running transaction.
func Debit(tx *gorm.DB, userID uint64, amount int64, entry Entry) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger: debit amount must be positive, got %d", amount)
	}
	return apply(tx, userID, -amount, entry)
}

func apply(tx *gorm.DB, userID uint64, delta int64, entry Entry) (*models.CoinTransaction, error) {
	var user models.User
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: lock user %d: %w", userID, errFind)
	}

	if delta < 0 && user.AnticoinBalance+delta < 0 {
		return nil, ErrInsufficientBalance
	}

	row := models.CoinTransaction{
		UserID:         userID,
		Amount:         delta,
		Type:           entry.Type,
		RefKind:        entry.RefKind,
		RefID:          entry.RefID,
		Description:    entry.Description,
		BlockchainTxID: entry.BlockchainTxID,
	}
	if errCreate := tx.Create(&row).Error; errCreate != nil {
		return nil, fmt.Errorf("ledger: append transaction: %w", errCreate)
	}

	if errUpdate := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("anticoin_balance", gorm.Expr("anticoin_balance + ?", delta)).Error; errUpdate != nil {
		return nil, fmt.Errorf("ledger: move balance: %w", errUpdate)
	}

	return &row, nil
}

// ReconstructBalance sums the user's ledger rows. The result must always
// match the cached counter on the user row.
func ReconstructBalance(conn *gorm.DB, userID uint64) (int64, error) {
	var total int64
	if err := conn.Model(&models.CoinTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("ledger: reconstruct balance: %w", err)
	}
	return total, nil
}

// AttachChainRef records a confirmed blockchain reference on an existing
// ledger row. This is the one permitted post-append mutation.
func AttachChainRef(conn *gorm.DB, transactionID uint64, chainRef string) error {
	if err := conn.Model(&models.CoinTransaction{}).
		Where("id = ? AND blockchain_tx_id IS NULL", transactionID).
		Update("blockchain_tx_id", chainRef).Error; err != nil {
		return fmt.Errorf("ledger: attach chain ref: %w", err)
	}
	return nil
}
