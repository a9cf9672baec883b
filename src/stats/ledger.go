// Package stats owns per-account engagement statistics: XP, generation
// counts and the consecutive-day activity streak.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/types"
)

// XPPerGeneration is the fixed reward for one generation event.
const XPPerGeneration = 2

type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
	// maxPage bounds leaderboard page_size; 0 means paging.MaxPageSize.
	maxPage int
}

type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithMaxPageSize(n int) Option {
	return func(l *Ledger) { l.maxPage = n }
}

func NewLedger(db *gorm.DB, log *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{db: db, log: logging.OrNop(log), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Advance applies one generation event at now to stat. It is the whole
// state transition; persistence is handled by RecordGeneration.
func Advance(stat types.UserStat, now time.Time) types.UserStat {
	now = now.UTC()
	stat.XP += XPPerGeneration
	stat.TotalGenerations++

	if stat.LastGeneration == nil {
		stat.StreakDays = 1
	} else {
		switch daysBetween(*stat.LastGeneration, now) {
		case 0:
			if stat.StreakDays < 1 {
				stat.StreakDays = 1
			}
		case 1:
			stat.StreakDays++
		default:
			stat.StreakDays = 1
		}
	}

	stat.LastGeneration = &now
	return stat
}

// daysBetween counts UTC calendar days from a to b. Negative when b is
// on an earlier date than a.
func daysBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// RecordGeneration credits account with one generation in its own transaction.
func (l *Ledger) RecordGeneration(ctx context.Context, account string) (types.UserStat, error) {
	var out types.UserStat
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = l.RecordGenerationTx(tx, account)
		return err
	})
	if err != nil {
		return types.UserStat{}, apperr.Storage("record generation", err)
	}
	return out, nil
}

// RecordGenerationTx runs inside the caller's transaction so the stat
// update commits or rolls back together with the content that caused it.
// The row is created if missing and then locked FOR UPDATE, which
// serializes concurrent events for one account without touching others.
func (l *Ledger) RecordGenerationTx(tx *gorm.DB, account string) (types.UserStat, error) {
	if account == "" {
		return types.UserStat{}, apperr.Invalid("account is required")
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_account"}},
		DoNothing: true,
	}).Create(&types.UserStat{UserAccount: account}).Error
	if err != nil {
		return types.UserStat{}, apperr.Storage("create user stat", err)
	}

	var stat types.UserStat
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_account = ?", account).
		First(&stat).Error
	if err != nil {
		return types.UserStat{}, apperr.Storage("lock user stat", err)
	}

	prevStreak := stat.StreakDays
	stat = Advance(stat, l.now())

	err = tx.Model(&types.UserStat{}).
		Where("id = ?", stat.ID).
		Updates(map[string]any{
			"xp":                stat.XP,
			"total_generations": stat.TotalGenerations,
			"streak_days":       stat.StreakDays,
			"last_generation":   stat.LastGeneration,
		}).Error
	if err != nil {
		return types.UserStat{}, apperr.Storage("save user stat", err)
	}

	l.log.Debug("generation recorded",
		zap.String("account", account),
		zap.Int64("xp", stat.XP),
		zap.Int("streak_days", stat.StreakDays),
		zap.Int("prev_streak_days", prevStreak),
	)
	return stat, nil
}

// Get returns the stat row for account, or a zero record if it has none yet.
func (l *Ledger) Get(ctx context.Context, account string) (types.UserStat, error) {
	var stat types.UserStat
	err := l.db.WithContext(ctx).Where("user_account = ?", account).Limit(1).Find(&stat).Error
	if err != nil {
		return types.UserStat{}, apperr.Storage("get user stat", err)
	}
	if stat.ID == 0 {
		return types.UserStat{UserAccount: account}, nil
	}
	return stat, nil
}
