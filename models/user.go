package models

import (
	"time"

	"gorm.io/gorm"
)

// User holds the measurement profile, the MSZ ledger counters and the
// referral links for one account. ExternalUserID is the opaque identifier
// the gateway forwards; all cross-record references use it.
type User struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       *string `json:"username,omitempty"`
	FirstName      *string `json:"first_name,omitempty"`

	// Onboarding
	OnboardingStep      string `gorm:"default:'start'" json:"onboarding_step"`
	OnboardingCompleted bool   `gorm:"default:false;index" json:"onboarding_completed"`

	// Body parameters (cm / kg)
	Gender *string  `json:"gender,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Chest  *float64 `json:"chest,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Hips   *float64 `json:"hips,omitempty"`

	// MSZ ledger — mutated only through services.TokenService.
	// TotalEarnedMSZ is the lifetime sum of credits and never decreases.
	MSZBalance     int64 `gorm:"default:0" json:"msz_balance"`
	TotalEarnedMSZ int64 `gorm:"default:0" json:"total_earned_msz"`

	// Referral program. ReferralCode is assigned once and never rewritten;
	// ReferredBy points at the referrer's ExternalUserID and is set only at
	// registration. ReferralCountL1 is capped at registration time.
	ReferralCode    *string `gorm:"uniqueIndex" json:"referral_code,omitempty"`
	ReferredBy      *string `gorm:"index" json:"referred_by,omitempty"`
	ReferralCountL1 int     `gorm:"default:0" json:"referral_count_l1"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
