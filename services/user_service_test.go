package services

import (
	"context"
	"testing"

	"mastersize-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := newTestDB(t)
	tokens := NewTokenService(db)
	referrals := NewReferralService(db, tokens, NopNotifier{}, testConfig())
	return NewUserService(db, tokens, referrals, testConfig())
}

func TestCreateIfAbsent(t *testing.T) {
	svc := newUserService(t)

	user, created, err := svc.CreateIfAbsent(context.Background(), "alice", nil, nil)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, user.ReferralCode)

	again, created, err := svc.CreateIfAbsent(context.Background(), "alice", nil, nil)
	require.NoError(t, err)
	assert.False(t, created)
	// The original referral code survives a duplicate create.
	assert.Equal(t, *user.ReferralCode, *again.ReferralCode)
}

func TestUpdateMeasurements(t *testing.T) {
	svc := newUserService(t)
	seedUser(t, svc.DB, "alice")

	gender := "female"
	require.NoError(t, svc.UpdateMeasurements(context.Background(), "alice", MeasurementUpdate{
		Gender: &gender,
		Height: f(170),
		Chest:  f(90),
	}))

	user, err := svc.GetByExternalID(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, user.Chest)
	assert.Equal(t, 90.0, *user.Chest)
	require.NotNil(t, user.Height)
	assert.Equal(t, 170.0, *user.Height)

	err = svc.UpdateMeasurements(context.Background(), "ghost", MeasurementUpdate{Height: f(180)})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCompleteOnboardingPaysOnce(t *testing.T) {
	svc := newUserService(t)
	seedUser(t, svc.DB, "alice")

	result, err := svc.CompleteOnboarding(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(800), result.Credited)

	// A duplicate network retry is a soft no-op.
	result, err = svc.CompleteOnboarding(context.Background(), "alice")
	require.NoError(t, err)
	assert.Zero(t, result.Credited)

	balance, earned := balanceOf(t, svc.DB, "alice")
	assert.Equal(t, int64(800), balance)
	assert.Equal(t, int64(800), earned)

	user, err := svc.GetByExternalID(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, user.OnboardingCompleted)
}

func TestCompleteOnboardingFiresCascade(t *testing.T) {
	svc := newUserService(t)
	seedUser(t, svc.DB, "alice")
	seedUser(t, svc.DB, "bob", withReferrer("alice"))

	result, err := svc.CompleteOnboarding(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(800), result.Credited)
	assert.Equal(t, 1, result.LevelsCredited)

	aliceBalance, _ := balanceOf(t, svc.DB, "alice")
	assert.Equal(t, int64(250), aliceBalance)
}

func TestAwardQualityBonusOnce(t *testing.T) {
	svc := newUserService(t)
	seedUser(t, svc.DB, "alice")

	credited, err := svc.AwardQualityBonus(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(200), credited)

	_, err = svc.AwardQualityBonus(context.Background(), "alice")
	require.ErrorIs(t, err, ErrAlreadyCompleted)

	balance, _ := balanceOf(t, svc.DB, "alice")
	assert.Equal(t, int64(200), balance)

	var completions []models.TaskCompletion
	require.NoError(t, svc.DB.Where("external_user_id = ?", "alice").Find(&completions).Error)
	require.Len(t, completions, 1)
	assert.Equal(t, ActionQualityBonus, completions[0].ActionKey)
}
