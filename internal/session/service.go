// Package session owns the timed check-in lifecycle: starting a session,
// computing live accrual on demand, and settling at checkout. Settlement
// is a single database transaction (close row, append ledger, move
// balance); the blockchain mirror runs after commit and can never block
// or undo a checkout.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anti-app/antiapp-backend/internal/cache"
	"github.com/anti-app/antiapp-backend/internal/chain"
	"github.com/anti-app/antiapp-backend/internal/ledger"
	"github.com/anti-app/antiapp-backend/internal/models"
)

// Service errors surfaced to handlers.
var (
	// ErrNoActiveCheckin indicates the user has no open session.
	ErrNoActiveCheckin = errors.New("session: no active check-in")
	// ErrAlreadyCheckedIn indicates the user already has an open session.
	ErrAlreadyCheckedIn = errors.New("session: already checked in")
	// ErrCafeUnavailable indicates the cafe is unknown or inactive.
	ErrCafeUnavailable = errors.New("session: cafe unavailable")
	// ErrSettlementInProgress indicates another checkout holds the lock.
	ErrSettlementInProgress = errors.New("session: settlement in progress")
)

// settleLockTTL bounds how long a crashed settlement can hold its lock.
const settleLockTTL = 30 * time.Second

// LiveStatus is the on-demand view of an open session.
type LiveStatus struct {
	Checkin        *models.Checkin
	ElapsedMinutes int64
	AccruedCost    int64
	AccruedCoins   int64
}

// Settlement is the result of a checkout.
type Settlement struct {
	Checkin         *models.Checkin
	Transaction     *models.CoinTransaction
	DurationMinutes int64
	CostCents       int64
	CoinsEarned     int64
	ChainStatus     chain.Status
	AlreadySettled  bool
}

// Service coordinates check-ins against the store, the ledger, and the
// optional chain mirror.
type Service struct {
	db      *gorm.DB
	settler chain.Settler
	cache   *cache.Cache
	now     func() time.Time
}

// NewService constructs a Service. settler and cache may be nil.
func NewService(db *gorm.DB, settler chain.Settler, c *cache.Cache) *Service {
	return &Service{db: db, settler: settler, cache: c, now: func() time.Time { return time.Now().UTC() }}
}

// Start opens a session at a cafe. A user can hold only one open session;
// the transactional guard plus the partial unique index close the
// two-devices race.
func (s *Service) Start(ctx context.Context, userID, cafeID uint64) (*models.Checkin, error) {
	var created models.Checkin
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cafe models.Cafe
		if errFind := tx.First(&cafe, cafeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrCafeUnavailable
			}
			return errFind
		}
		if !cafe.Active {
			return ErrCafeUnavailable
		}

		var open models.Checkin
		errOpen := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND end_time IS NULL", userID).
			First(&open).Error
		if errOpen == nil {
			return ErrAlreadyCheckedIn
		}
		if !errors.Is(errOpen, gorm.ErrRecordNotFound) {
			return errOpen
		}

		created = models.Checkin{
			UserID:    userID,
			CafeID:    cafeID,
			StartTime: s.now(),
		}
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			// A concurrent check-in that committed between the guard
			// query and this insert trips the partial unique index.
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCheckedIn
			}
			return errCreate
		}
		created.Cafe = &cafe
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &created, nil
}

// Live returns the open session with elapsed values derived from wall
// clock at call time. A nil result with a nil error is the expected
// "not checked in" state.
func (s *Service) Live(ctx context.Context, userID uint64) (*LiveStatus, error) {
	var open models.Checkin
	errFind := s.db.WithContext(ctx).
		Preload("Cafe").
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&open).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}

	minutes := ElapsedMinutes(open.StartTime, s.now())
	var rate, coinRate int64
	if open.Cafe != nil {
		rate = open.Cafe.HourlyRateCents
		coinRate = open.Cafe.CoinRate
	}
	return &LiveStatus{
		Checkin:        &open,
		ElapsedMinutes: minutes,
		AccruedCost:    CostCents(minutes, rate),
		AccruedCoins:   CoinsEarned(minutes, coinRate),
	}, nil
}

// Checkout settles the user's open session. Retries are idempotent: once
// the row is closed, subsequent calls return the recorded settlement
// without writing. The chain mirror runs after commit; any mirror outcome
// other than confirmed leaves the references null.
func (s *Service) Checkout(ctx context.Context, userID uint64) (*Settlement, error) {
	// The open row id is needed for the settlement lock before the
	// closing transaction starts.
	var open models.Checkin
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&open).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return s.settledReplay(ctx, userID)
		}
		return nil, errFind
	}

	locked, errLock := s.cache.AcquireLock(ctx, cache.SettleLockKey(open.ID), settleLockTTL)
	if errLock != nil {
		log.WithError(errLock).Warn("session: settlement lock unavailable, relying on row lock")
	} else if !locked {
		return nil, ErrSettlementInProgress
	} else {
		defer s.cache.ReleaseLock(ctx, cache.SettleLockKey(open.ID))
	}

	settlement := &Settlement{}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Checkin
		if errRow := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Cafe").
			First(&row, open.ID).Error; errRow != nil {
			return errRow
		}
		if row.EndTime != nil {
			// Lost the race to another settlement; replay its result.
			settlement.Checkin = &row
			settlement.DurationMinutes = row.DurationMinutes
			settlement.CostCents = row.CostCents
			settlement.CoinsEarned = row.CoinsEarned
			settlement.AlreadySettled = true
			return nil
		}

		now := s.now()
		minutes := ElapsedMinutes(row.StartTime, now)
		var rate, coinRate int64
		if row.Cafe != nil {
			rate = row.Cafe.HourlyRateCents
			coinRate = row.Cafe.CoinRate
		}
		cost := CostCents(minutes, rate)
		coins := CoinsEarned(minutes, coinRate)

		if errUpdate := tx.Model(&row).Updates(map[string]any{
			"end_time":         now,
			"duration_minutes": minutes,
			"cost_cents":       cost,
			"coins_earned":     coins,
		}).Error; errUpdate != nil {
			return errUpdate
		}
		row.EndTime = &now
		row.DurationMinutes = minutes
		row.CostCents = cost
		row.CoinsEarned = coins

		if coins > 0 {
			cafeName := ""
			if row.Cafe != nil {
				cafeName = row.Cafe.Name
			}
			earned, errCredit := ledger.Credit(tx, userID, coins, ledger.Entry{
				Type:        models.TxTypeEarn,
				RefKind:     models.TxRefCheckin,
				RefID:       row.ID,
				Description: fmt.Sprintf("Check-in at %s", cafeName),
			})
			if errCredit != nil {
				return errCredit
			}
			settlement.Transaction = earned
		}

		settlement.Checkin = &row
		settlement.DurationMinutes = minutes
		settlement.CostCents = cost
		settlement.CoinsEarned = coins
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	if !settlement.AlreadySettled {
		s.mirrorEarn(ctx, settlement)
	}
	return settlement, nil
}

// settledReplay answers a retried checkout after the open row was closed:
// the most recent settled session is returned unchanged.
func (s *Service) settledReplay(ctx context.Context, userID uint64) (*Settlement, error) {
	var last models.Checkin
	errFind := s.db.WithContext(ctx).
		Preload("Cafe").
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Order("end_time DESC").
		First(&last).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCheckin
		}
		return nil, errFind
	}

	settlement := &Settlement{
		Checkin:         &last,
		DurationMinutes: last.DurationMinutes,
		CostCents:       last.CostCents,
		CoinsEarned:     last.CoinsEarned,
		AlreadySettled:  true,
	}
	var earned models.CoinTransaction
	if errTx := s.db.WithContext(ctx).
		Where("ref_kind = ? AND ref_id = ?", models.TxRefCheckin, last.ID).
		First(&earned).Error; errTx == nil {
		settlement.Transaction = &earned
	}
	return settlement, nil
}

// mirrorEarn submits the post-commit chain mirror and attaches a
// confirmed reference to the check-in and ledger rows. Every failure
// path is absorbed: checkout has already succeeded.
func (s *Service) mirrorEarn(ctx context.Context, settlement *Settlement) {
	if s.settler == nil || settlement.CoinsEarned <= 0 {
		return
	}

	receipt, errMint := s.settler.Mint(ctx, settlement.CoinsEarned, chain.MintMemo(settlement.CoinsEarned))
	if errMint != nil {
		log.WithError(errMint).WithField("checkin_id", settlement.Checkin.ID).
			Warn("session: chain mirror failed, checkout unaffected")
	}
	if receipt != nil {
		settlement.ChainStatus = receipt.Status
	}
	if !receipt.Confirmed() {
		return
	}

	if errUpdate := s.db.WithContext(ctx).Model(&models.Checkin{}).
		Where("id = ? AND blockchain_tx_id IS NULL", settlement.Checkin.ID).
		Update("blockchain_tx_id", receipt.TxHash).Error; errUpdate != nil {
		log.WithError(errUpdate).Warn("session: attach chain ref to checkin failed")
	} else {
		settlement.Checkin.BlockchainTxID = &receipt.TxHash
	}
	if settlement.Transaction != nil {
		if errAttach := ledger.AttachChainRef(s.db.WithContext(ctx), settlement.Transaction.ID, receipt.TxHash); errAttach != nil {
			log.WithError(errAttach).Warn("session: attach chain ref to ledger failed")
		} else {
			settlement.Transaction.BlockchainTxID = &receipt.TxHash
		}
	}
}
