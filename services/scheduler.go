// services/scheduler.go
package services

import (
	"log"
	"time"

	"mastersize-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler deactivates catalog tasks whose expiry has passed.
func (s *TaskService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: flip expired tasks off
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now().UTC()
			res := s.DB.Model(&models.Task{}).
				Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
				Update("is_active", false)
			if res.Error != nil {
				log.Printf("[Scheduler] DB error: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("✅ Deactivated %d expired task(s)", res.RowsAffected)
			}
		}),
	)
}
