package services

import "errors"

// Caller-facing errors. Handlers map these to HTTP statuses; none of them
// are retryable. Anything else coming out of a service wraps the store
// error and should be treated as transient.
var (
	ErrUserNotFound             = errors.New("user not found")
	ErrTaskNotFound             = errors.New("task not found")
	ErrTaskInactive             = errors.New("task is not active")
	ErrAlreadyCompleted         = errors.New("already completed")
	ErrInvalidAmount            = errors.New("credit amount must not be negative")
	ErrChartNotFound            = errors.New("size chart not found")
	ErrProfileIncomplete        = errors.New("user profile is not completed")
	ErrInsufficientMeasurements = errors.New("not enough measurements to score any size")
	ErrAlreadyRegistered        = errors.New("user is already registered")
	ErrSelfReferral             = errors.New("users cannot refer themselves")
	ErrInvalidReferralCode      = errors.New("referral code does not exist")
	ErrReferralCapReached       = errors.New("referrer has reached the referral limit")
)
