package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mastersize-system/config"
	"mastersize-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// referralMaxDepth bounds the cascade walk. Links form a forest by
// construction, but the walk never trusts the store for that.
const referralMaxDepth = 3

// ReferralService handles registration under a referral code and the
// reward cascade fired when a referred user finishes onboarding.
type ReferralService struct {
	DB       *gorm.DB
	Tokens   *TokenService
	Notifier Notifier

	l1Reward   int64
	l2Reward   int64
	l3Reward   int64
	maxPerUser int
}

func NewReferralService(db *gorm.DB, tokens *TokenService, notifier Notifier, cfg *config.Config) *ReferralService {
	return &ReferralService{
		DB:         db,
		Tokens:     tokens,
		Notifier:   notifier,
		l1Reward:   cfg.ReferralL1MSZ,
		l2Reward:   cfg.ReferralL2MSZ,
		l3Reward:   cfg.ReferralL3MSZ,
		maxPerUser: cfg.MaxReferralsPerUser,
	}
}

// GenerateReferralCode returns a fresh 8-character code.
func GenerateReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

// RegisterWithCode creates a new user under a referral code. The whole
// operation is one transaction: if any check fails, no user is created
// and the referrer's counter is untouched. The cap check and counter
// increment are a single conditional UPDATE, so two concurrent
// registrations cannot push the counter past the limit.
func (s *ReferralService) RegisterWithCode(ctx context.Context, externalUserID string, username, firstName *string, code string) (*models.User, error) {
	var created *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("external_user_id = ?", externalUserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}

		var referrer models.User
		if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidReferralCode
			}
			return fmt.Errorf("failed to resolve referral code: %w", err)
		}
		if referrer.ExternalUserID == externalUserID {
			return ErrSelfReferral
		}

		res := tx.Model(&models.User{}).
			Where("external_user_id = ? AND referral_count_l1 < ?", referrer.ExternalUserID, s.maxPerUser).
			UpdateColumn("referral_count_l1", gorm.Expr("referral_count_l1 + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment referral count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrReferralCapReached
		}

		newCode := GenerateReferralCode()
		user := models.User{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Username:       username,
			FirstName:      firstName,
			ReferralCode:   &newCode,
			ReferredBy:     &referrer.ExternalUserID,
			OnboardingStep: "start",
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create referred user: %w", err)
		}
		created = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ProcessReferralCompletion walks the referral chain of a user who just
// finished onboarding and credits up to three ancestor referrers. The
// guard row keyed (user, referral_l1) makes replays no-ops. Each level
// is its own atomic step; a failure mid-chain is logged and surfaced as
// a shorter levelsCredited, never rolled back.
func (s *ReferralService) ProcessReferralCompletion(ctx context.Context, externalUserID string) (int, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to load user %s: %w", externalUserID, err)
	}
	if user.ReferredBy == nil {
		return 0, nil
	}

	inserted, err := insertCompletion(s.DB.WithContext(ctx), externalUserID, ActionReferralL1, s.l1Reward)
	if err != nil {
		return 0, err
	}
	if !inserted {
		// Replay of an already-settled completion.
		return 0, nil
	}

	rewards := [referralMaxDepth]int64{s.l1Reward, s.l2Reward, s.l3Reward}
	levels := 0
	next := user.ReferredBy
	for hop := 0; hop < referralMaxDepth && next != nil; hop++ {
		var referrer models.User
		if err := s.DB.WithContext(ctx).Where("external_user_id = ?", *next).First(&referrer).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("⚠️ referral cascade for %s stopped at L%d: %v", externalUserID, hop+1, err)
			}
			break
		}

		reason := fmt.Sprintf("referral_l%d:%s", hop+1, externalUserID)
		if err := s.Tokens.Credit(ctx, referrer.ExternalUserID, rewards[hop], reason); err != nil {
			log.Printf("⚠️ referral credit failed for %s at L%d: %v", externalUserID, hop+1, err)
			break
		}
		levels++

		s.Notifier.Notify(ctx, referrer.ExternalUserID, fmt.Sprintf(
			"🎉 Your L%d referral %s completed onboarding! You earned %d MSZ",
			hop+1, displayName(&user), rewards[hop]))

		next = referrer.ReferredBy
	}
	return levels, nil
}

// ReferralStats is the referral page payload.
type ReferralStats struct {
	ReferralCode    string `json:"referral_code"`
	ReferralCountL1 int    `json:"referral_count_l1"`
	MaxReferrals    int    `json:"max_referrals"`
	PotentialMSZ    int64  `json:"potential_msz"`
}

// GetStats returns the user's referral code, how many direct referrals
// they have sponsored and how much L1 reward is still reachable. The
// code is assigned here on first request if the row predates codes.
func (s *ReferralService) GetStats(ctx context.Context, externalUserID string) (*ReferralStats, error) {
	user, err := s.ensureReferralCode(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	remaining := s.maxPerUser - user.ReferralCountL1
	if remaining < 0 {
		remaining = 0
	}
	return &ReferralStats{
		ReferralCode:    *user.ReferralCode,
		ReferralCountL1: user.ReferralCountL1,
		MaxReferrals:    s.maxPerUser,
		PotentialMSZ:    s.l1Reward * int64(remaining),
	}, nil
}

// ensureReferralCode assigns a code to rows that never got one. The
// conditional UPDATE only fires while referral_code is still NULL, so an
// assigned code is never rewritten.
func (s *ReferralService) ensureReferralCode(ctx context.Context, externalUserID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", externalUserID, err)
	}
	if user.ReferralCode != nil {
		return &user, nil
	}

	code := GenerateReferralCode()
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("external_user_id = ? AND referral_code IS NULL", externalUserID).
		UpdateColumn("referral_code", code)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to assign referral code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to another request; re-read the winner's code.
		if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to reload user %s: %w", externalUserID, err)
		}
		return &user, nil
	}
	user.ReferralCode = &code
	return &user, nil
}

func displayName(u *models.User) string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.ExternalUserID
}
