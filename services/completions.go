package services

import (
	"fmt"
	"time"

	"mastersize-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Action keys for built-in awards. Catalog tasks use TaskActionKey.
const (
	ActionOnboarding   = "onboarding"
	ActionQualityBonus = "quality_bonus"
	ActionReferralL1   = "referral_l1"
)

// TaskActionKey is the guard key for a catalog task completion.
func TaskActionKey(taskID string) string {
	return "task:" + taskID
}

// insertCompletion writes the (user, action) guard row with an
// ON CONFLICT DO NOTHING insert. Returns false when the row already
// existed. This single statement is what closes the race between two
// concurrent completions of the same pair: exactly one caller gets true.
func insertCompletion(db *gorm.DB, externalUserID, actionKey string, reward int64) (bool, error) {
	rec := models.TaskCompletion{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ActionKey:      actionKey,
		RewardGiven:    reward,
		CompletedAt:    time.Now().UTC(),
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "action_key"}},
		DoNothing: true,
	}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert completion %s/%s: %w", externalUserID, actionKey, res.Error)
	}
	return res.RowsAffected > 0, nil
}
