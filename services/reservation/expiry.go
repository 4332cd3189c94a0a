package reservation

import (
	"context"
	"time"

	reservationRepo "mindbridge/database/repository/reservation"
	"mindbridge/models"
	"mindbridge/services/notification"

	"go.uber.org/zap"
)

// ExpireOne cancels a single reservation still sitting in AWAITING_PAYMENT,
// releasing its slot key. Safe to call any number of times: the conditional
// transition matches at most once, so a reservation that was paid, cancelled
// or already expired in the meantime is left untouched.
func (s *DefaultReservationService) ExpireOne(ctx context.Context, id string) error {
	ok, err := s.Repo.Transition(ctx, id,
		[]models.ReservationStatus{models.ReservationAwaitingPayment},
		models.ReservationCancelled,
		reservationRepo.TransitionUpdate{Active: boolPtr(false)},
	)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	s.Logger.Info("reservation expired unpaid", zap.String("reservationId", id))
	s.Events.Emit(ctx, notification.Event{
		Type:          notification.EventReservationExpired,
		ReservationID: id,
	})
	return nil
}

// ExpireStale sweeps every reservation unpaid past the payment window. The
// sweep is the backstop for per-reservation expiry tasks that were lost.
func (s *DefaultReservationService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.PaymentWindow)
	stale, err := s.Repo.StaleAwaiting(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, res := range stale {
		if err := s.ExpireOne(ctx, res.ID); err != nil {
			s.Logger.Warn("failed to expire reservation",
				zap.String("reservationId", res.ID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}
