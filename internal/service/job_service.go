package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"salonbook/internal/repository"
	"salonbook/internal/utils"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// CompleteFinishedBookings marks confirmed bookings whose end time has
// passed as completed, so they stop counting as busy time.
func (s *JobService) CompleteFinishedBookings() error {
	logger := utils.GetLogger()

	ids, err := s.Repo.GetConfirmedBookingIDsPastEndTime()
	if err != nil {
		return fmt.Errorf("cron job: failed to get confirmed bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	updated, err := s.Repo.UpdateBookingStatuses(ids, "completed")
	if err != nil {
		return fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}

	logger.Info("marked finished bookings completed", zap.Int64("count", updated))
	return nil
}

// PurgeStalePendingBookings deletes pending bookings older than the cutoff.
// These are abandoned checkouts that held a slot but never paid.
func (s *JobService) PurgeStalePendingBookings(olderThan time.Duration) (int64, error) {
	return s.Repo.DeletePendingBookingsOlderThan(time.Now().UTC().Add(-olderThan))
}
