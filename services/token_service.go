package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mastersize-system/models"

	"gorm.io/gorm"
)

// TokenService owns the MSZ balance invariant: msz_balance and
// total_earned_msz move together, in one statement, and nothing outside
// this service touches either column. A future Debit lands here too.
type TokenService struct {
	DB *gorm.DB
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{DB: db}
}

// Credit adds amount MSZ to the user's balance and lifetime total.
// amount == 0 succeeds without touching the row; a negative amount is
// rejected before any store access. Once applied, a credit is final.
func (s *TokenService) Credit(ctx context.Context, externalUserID string, amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if amount == 0 {
		return nil
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"msz_balance":      gorm.Expr("msz_balance + ?", amount),
			"total_earned_msz": gorm.Expr("total_earned_msz + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	log.Printf("💎 MSZ credited: %s +%d (reason: %s)", externalUserID, amount, reason)
	return nil
}

// GetBalance returns the current spendable balance.
func (s *TokenService) GetBalance(ctx context.Context, externalUserID string) (int64, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Select("msz_balance").
		Where("external_user_id = ?", externalUserID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance for %s: %w", externalUserID, err)
	}
	return user.MSZBalance, nil
}
