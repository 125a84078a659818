package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mastersize-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskService is the completion guard for the task catalog: at most one
// reward per (user, task), enforced by the unique guard insert rather
// than a check-then-write sequence.
type TaskService struct {
	DB     *gorm.DB
	Tokens *TokenService
}

func NewTaskService(db *gorm.DB, tokens *TokenService) *TaskService {
	return &TaskService{DB: db, Tokens: tokens}
}

// CreateTask adds a task to the catalog (admin surface).
func (s *TaskService) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.RewardMSZ <= 0 {
		return fmt.Errorf("%w: task reward %d", ErrInvalidAmount, task.RewardMSZ)
	}
	if err := s.DB.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// ListAvailable returns active, unexpired tasks the user has not completed.
func (s *TaskService) ListAvailable(ctx context.Context, externalUserID string) ([]models.Task, error) {
	var tasks []models.Task
	now := time.Now().UTC()
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var completions []models.TaskCompletion
	err = s.DB.WithContext(ctx).
		Where("external_user_id = ? AND action_key LIKE ?", externalUserID, "task:%").
		Find(&completions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}

	done := make(map[string]bool, len(completions))
	for _, c := range completions {
		done[c.ActionKey] = true
	}

	available := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !done[TaskActionKey(t.ID)] {
			available = append(available, t)
		}
	}
	return available, nil
}

// Complete redeems a task for a user and credits its reward exactly once.
// Under concurrent calls for the same pair, one caller gets the credited
// amount and the rest get ErrAlreadyCompleted.
func (s *TaskService) Complete(ctx context.Context, externalUserID, taskID string) (int64, error) {
	var task models.Task
	if err := s.DB.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTaskNotFound
		}
		return 0, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}
	if !task.IsActive {
		return 0, ErrTaskInactive
	}
	if task.ExpiresAt != nil && task.ExpiresAt.Before(time.Now().UTC()) {
		return 0, ErrTaskInactive
	}

	// Reject unknown users before writing a guard row for them.
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

	inserted, err := insertCompletion(s.DB.WithContext(ctx), externalUserID, TaskActionKey(task.ID), task.RewardMSZ)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, ErrAlreadyCompleted
	}

	if err := s.Tokens.Credit(ctx, externalUserID, task.RewardMSZ, fmt.Sprintf("task:%s", task.Name)); err != nil {
		return 0, err
	}
	return task.RewardMSZ, nil
}
