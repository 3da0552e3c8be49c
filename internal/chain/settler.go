// Package chain mirrors settled AntiCoin movements onto a public test
// network. The mirror is a minimal-value transfer carrying a unique memo
// in calldata; its receipt hash is attached to the ledger for audit and
// display only. Nothing in the product depends on the mirror succeeding.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of a settlement attempt.
type Status string

const (
	// StatusConfirmed means the transaction is included and succeeded.
	StatusConfirmed Status = "confirmed"
	// StatusFailed means the user/key rejected it, submission failed, or
	// it reverted on chain.
	StatusFailed Status = "failed"
	// StatusTimedOut means the confirmation poll hit its deadline. The
	// transaction may still land; the hash is kept but is not treated as
	// a confirmed reference.
	StatusTimedOut Status = "timed_out"
)

// Receipt reports the outcome of a settlement attempt.
type Receipt struct {
	TxHash string
	Status Status
}

// Confirmed reports whether the receipt carries a usable reference.
func (r *Receipt) Confirmed() bool {
	return r != nil && r.Status == StatusConfirmed && r.TxHash != ""
}

// Settler submits memo-tagged settlement transactions. A nil Settler
// everywhere means the chain mirror is disabled.
type Settler interface {
	// Mint mirrors an earn as a self-transfer.
	Mint(ctx context.Context, amount int64, memo string) (*Receipt, error)
	// Transfer mirrors a spend toward a third-party address.
	Transfer(ctx context.Context, to string, amount int64, memo string) (*Receipt, error)
}

// MintMemo builds the unique memo string for an earn mirror.
func MintMemo(amount int64) string {
	return fmt.Sprintf("AntiCoin Mint: %d coins at %d %s", amount, time.Now().UnixMilli(), shortNonce())
}

// TransferMemo builds the unique memo string for a spend mirror.
func TransferMemo(amount int64, to string) string {
	short := to
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("AntiCoin Transfer: %d coins to %s at %d %s", amount, short, time.Now().UnixMilli(), shortNonce())
}

func shortNonce() string {
	return uuid.NewString()[:8]
}
