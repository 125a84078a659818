package services

import (
	"testing"

	"mastersize-system/config"
	"mastersize-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every goroutine on the same in-memory DB and
	// serializes the pool, so concurrent test traffic cannot hit
	// SQLITE_BUSY.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskCompletion{},
		&models.SizeRecommendation{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		BaseRewardMSZ:       300,
		ExtendedRewardMSZ:   200,
		FullRewardMSZ:       800,
		QualityBonusMSZ:     200,
		ReferralL1MSZ:       250,
		ReferralL2MSZ:       100,
		ReferralL3MSZ:       50,
		MaxReferralsPerUser: 50,
	}
}

type seedOpt func(*models.User)

func withReferrer(referrerID string) seedOpt {
	return func(u *models.User) { u.ReferredBy = &referrerID }
}

func withReferralCode(code string) seedOpt {
	return func(u *models.User) { u.ReferralCode = &code }
}

func withReferralCount(n int) seedOpt {
	return func(u *models.User) { u.ReferralCountL1 = n }
}

func withOnboardingDone() seedOpt {
	return func(u *models.User) { u.OnboardingCompleted = true }
}

func withProfile(gender string, height, chest, waist, hips float64) seedOpt {
	return func(u *models.User) {
		u.Gender = &gender
		if height > 0 {
			u.Height = &height
		}
		if chest > 0 {
			u.Chest = &chest
		}
		if waist > 0 {
			u.Waist = &waist
		}
		if hips > 0 {
			u.Hips = &hips
		}
	}
}

func seedUser(t *testing.T, db *gorm.DB, externalID string, opts ...seedOpt) *models.User {
	t.Helper()
	code := GenerateReferralCode()
	user := &models.User{
		ID:             uuid.NewString(),
		ExternalUserID: externalID,
		ReferralCode:   &code,
		OnboardingStep: "start",
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func balanceOf(t *testing.T, db *gorm.DB, externalID string) (int64, int64) {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("external_user_id = ?", externalID).First(&user).Error)
	return user.MSZBalance, user.TotalEarnedMSZ
}
