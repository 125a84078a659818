package workers

import (
	"context"
	"testing"

	"mastersize-system/config"
	"mastersize-system/models"
	"mastersize-system/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSweeper(t *testing.T) (*ReferralSweeper, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TaskCompletion{}))

	cfg := &config.Config{
		ReferralL1MSZ:       250,
		ReferralL2MSZ:       100,
		ReferralL3MSZ:       50,
		MaxReferralsPerUser: 50,
	}
	referrals := services.NewReferralService(db, services.NewTokenService(db), services.NopNotifier{}, cfg)
	return NewReferralSweeper(db, referrals), db
}

func addUser(t *testing.T, db *gorm.DB, externalID string, referredBy *string, onboarded bool) {
	t.Helper()
	code := services.GenerateReferralCode()
	require.NoError(t, db.Create(&models.User{
		ID:                  uuid.NewString(),
		ExternalUserID:      externalID,
		ReferralCode:        &code,
		ReferredBy:          referredBy,
		OnboardingCompleted: onboarded,
	}).Error)
}

func TestSweepPicksUpPendingCascades(t *testing.T) {
	w, db := newSweeper(t)
	referrer := "alice"
	addUser(t, db, "alice", nil, true)
	addUser(t, db, "bob", &referrer, true)

	n, err := w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var alice models.User
	require.NoError(t, db.Where("external_user_id = ?", "alice").First(&alice).Error)
	assert.Equal(t, int64(250), alice.MSZBalance)

	// The guard row is now present; the next sweep finds nothing.
	n, err = w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepSkipsSettledAndUnfinished(t *testing.T) {
	w, db := newSweeper(t)
	referrer := "alice"
	addUser(t, db, "alice", nil, true)
	addUser(t, db, "bob", &referrer, false) // onboarding not finished
	addUser(t, db, "carol", nil, true)      // no referrer

	n, err := w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
