package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mastersize-system/config"
	"mastersize-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserService covers account creation and the onboarding flow: profile
// measurements, the one-time onboarding reward and the quality bonus.
type UserService struct {
	DB        *gorm.DB
	Tokens    *TokenService
	Referrals *ReferralService

	fullReward   int64
	qualityBonus int64
}

func NewUserService(db *gorm.DB, tokens *TokenService, referrals *ReferralService, cfg *config.Config) *UserService {
	return &UserService{
		DB:           db,
		Tokens:       tokens,
		Referrals:    referrals,
		fullReward:   cfg.FullRewardMSZ,
		qualityBonus: cfg.QualityBonusMSZ,
	}
}

// CreateIfAbsent registers a user without a referral link. Returns the
// row and whether it was freshly created. Safe to call on every /start.
func (s *UserService) CreateIfAbsent(ctx context.Context, externalUserID string, username, firstName *string) (*models.User, bool, error) {
	code := GenerateReferralCode()
	user := models.User{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Username:       username,
		FirstName:      firstName,
		ReferralCode:   &code,
		OnboardingStep: "start",
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&user)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create user %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected > 0 {
		return &user, true, nil
	}

	existing, err := s.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *UserService) GetByExternalID(ctx context.Context, externalUserID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", externalUserID, err)
	}
	return &user, nil
}

// MeasurementUpdate carries the optional profile fields; nil means
// "leave unchanged".
type MeasurementUpdate struct {
	Gender *string  `json:"gender"`
	Age    *int     `json:"age"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	Chest  *float64 `json:"chest"`
	Waist  *float64 `json:"waist"`
	Hips   *float64 `json:"hips"`
}

// UpdateMeasurements writes the supplied profile fields.
func (s *UserService) UpdateMeasurements(ctx context.Context, externalUserID string, m MeasurementUpdate) error {
	updates := map[string]interface{}{}
	if m.Gender != nil {
		updates["gender"] = *m.Gender
	}
	if m.Age != nil {
		updates["age"] = *m.Age
	}
	if m.Height != nil {
		updates["height"] = *m.Height
	}
	if m.Weight != nil {
		updates["weight"] = *m.Weight
	}
	if m.Chest != nil {
		updates["chest"] = *m.Chest
	}
	if m.Waist != nil {
		updates["waist"] = *m.Waist
	}
	if m.Hips != nil {
		updates["hips"] = *m.Hips
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("external_user_id = ?", externalUserID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update measurements for %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// OnboardingResult reports what finishing onboarding paid out.
type OnboardingResult struct {
	Credited       int64 `json:"credited"`
	LevelsCredited int   `json:"levels_credited"`
}

// CompleteOnboarding marks the profile done, pays the full onboarding
// reward at most once and fires the referral cascade. Re-invocations are
// soft no-ops: the flag write is idempotent and both awards are guarded.
func (s *UserService) CompleteOnboarding(ctx context.Context, externalUserID string) (*OnboardingResult, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"onboarding_completed": true,
			"onboarding_step":      "completed",
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark onboarding complete for %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	result := &OnboardingResult{}
	inserted, err := insertCompletion(s.DB.WithContext(ctx), externalUserID, ActionOnboarding, s.fullReward)
	if err != nil {
		return nil, err
	}
	if inserted {
		if err := s.Tokens.Credit(ctx, externalUserID, s.fullReward, "onboarding_completed"); err != nil {
			return nil, err
		}
		result.Credited = s.fullReward
	}

	levels, err := s.Referrals.ProcessReferralCompletion(ctx, externalUserID)
	if err != nil {
		// The sweep worker re-drives cascades whose guard row is missing.
		log.Printf("⚠️ referral cascade for %s failed: %v", externalUserID, err)
	}
	result.LevelsCredited = levels
	return result, nil
}

// AwardQualityBonus pays the measurement-quality bonus, once per user.
func (s *UserService) AwardQualityBonus(ctx context.Context, externalUserID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("external_user_id = ?", externalUserID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to look up user %s: %w", externalUserID, err)
	}
	if count == 0 {
		return 0, ErrUserNotFound
	}

	inserted, err := insertCompletion(s.DB.WithContext(ctx), externalUserID, ActionQualityBonus, s.qualityBonus)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, ErrAlreadyCompleted
	}
	if err := s.Tokens.Credit(ctx, externalUserID, s.qualityBonus, "quality_bonus"); err != nil {
		return 0, err
	}
	return s.qualityBonus, nil
}
