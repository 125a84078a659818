package models

import "time"

// TaskType groups tasks by how they are triggered
type TaskType string

const (
	TaskTypeOnboarding TaskType = "onboarding"
	TaskTypeSocial     TaskType = "social"
	TaskTypeReferral   TaskType = "referral"
)

// Task is a rewardable action from the catalog
type Task struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string     `gorm:"uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	RewardMSZ   int64      `gorm:"not null" json:"reward_msz"`
	Type        TaskType   `gorm:"not null;default:'social'" json:"type"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	Timestamps
}

// TaskCompletion is the at-most-once guard record. The composite unique
// index on (external_user_id, action_key) is what makes every award
// idempotent: whoever inserts the row first pays out, everyone else sees
// a conflict. Rows are never updated or deleted.
//
// ActionKey is "task:<task id>" for catalog tasks and a fixed key for
// built-in awards (onboarding, quality bonus, referral cascade trigger).
type TaskCompletion struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_completion_user_action;not null" json:"external_user_id"`
	ActionKey      string    `gorm:"uniqueIndex:idx_completion_user_action;not null" json:"action_key"`
	RewardGiven    int64     `json:"reward_given"`
	CompletedAt    time.Time `json:"completed_at"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
