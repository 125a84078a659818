package workers

import (
	"context"
	"log"
	"time"

	"mastersize-system/models"
	"mastersize-system/services"

	"gorm.io/gorm"
)

// ReferralSweeper re-drives the referral cascade for users whose
// onboarding finished but whose cascade guard row is missing — the
// recovery path for a crash between the onboarding award and the
// cascade. ProcessReferralCompletion is idempotent, so sweeping an
// already-settled user is a no-op.
type ReferralSweeper struct {
	DB        *gorm.DB
	Referrals *services.ReferralService
}

func NewReferralSweeper(db *gorm.DB, referrals *services.ReferralService) *ReferralSweeper {
	return &ReferralSweeper{DB: db, Referrals: referrals}
}

// SweepOnce processes one batch of pending users and returns how many
// it picked up.
func (w *ReferralSweeper) SweepOnce(ctx context.Context) (int, error) {
	sub := w.DB.Model(&models.TaskCompletion{}).
		Select("external_user_id").
		Where("action_key = ?", services.ActionReferralL1)

	var ids []string
	err := w.DB.WithContext(ctx).Model(&models.User{}).
		Where("onboarding_completed = ? AND referred_by IS NOT NULL", true).
		Where("external_user_id NOT IN (?)", sub).
		Limit(100).
		Pluck("external_user_id", &ids).Error
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		levels, err := w.Referrals.ProcessReferralCompletion(ctx, id)
		if err != nil {
			log.Printf("[ReferralSweep] cascade for %s failed: %v", id, err)
			continue
		}
		log.Printf("[ReferralSweep] re-drove cascade for %s (%d level(s) credited)", id, levels)
	}
	return len(ids), nil
}

// PollReferrals runs the sweeper until the context is cancelled.
func PollReferrals(ctx context.Context, w *ReferralSweeper, pollInterval time.Duration) {
	log.Println("Starting referral sweep worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Referral sweep worker stopped.")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if n, err := w.SweepOnce(sweepCtx); err != nil {
				log.Printf("[ReferralSweep] sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[ReferralSweep] swept %d pending cascade(s)", n)
			}
			cancel()
		}
	}
}
