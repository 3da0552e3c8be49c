package models

import "time"

// Transaction types. The column is a closed three-value enum; the API
// currently emits earn and spend, transfer is reserved for
// wallet-to-wallet sends.
const (
	TxTypeEarn     = "earn"
	TxTypeSpend    = "spend"
	TxTypeTransfer = "transfer"
)

// Reference kinds for transaction provenance.
const (
	TxRefCheckin = "checkin"
	TxRefEvent   = "event"
	TxRefReward  = "reward"
)

// CoinTransaction is an append-only ledger row. Amount is signed: earns
// are positive, spends negative. Rows are never updated or deleted except
// for late attachment of a confirmed blockchain reference. A check-in can
// back at most one ledger row, enforced by a partial unique index, so a
// retried settlement cannot append twice.
type CoinTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Ledger owner.
	User   *User  `gorm:"foreignKey:UserID"` // Owner record.

	Amount  int64  `gorm:"not null"`                 // Signed AntiCoin amount.
	Type    string `gorm:"type:text;not null;index"` // earn, spend or transfer.
	RefKind string `gorm:"type:text;uniqueIndex:idx_tx_checkin_ref,where:ref_kind = 'checkin'"` // Originating entity kind.
	RefID   uint64 `gorm:"uniqueIndex:idx_tx_checkin_ref,where:ref_kind = 'checkin'"`           // Originating entity id.

	Description string `gorm:"type:text"` // Human-readable context.

	BlockchainTxID *string `gorm:"type:text"` // On-chain mirror reference, if confirmed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Append timestamp.
}

// TableName keeps the relation name the rest of the product uses.
func (CoinTransaction) TableName() string {
	return "anticoin_transactions"
}
