package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	consultationRepo "mindbridge/database/repository/consultation"
	reservationRepo "mindbridge/database/repository/reservation"
	"mindbridge/models"
	"mindbridge/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReservationService is the production implementation.
type DefaultReservationService struct {
	Repo          reservationRepo.ReservationRepository
	Consultations consultationRepo.ConsultationRepository
	Events        notification.Emitter
	Expiry        ExpiryScheduler
	// PaymentWindow is how long a reservation may sit in AWAITING_PAYMENT
	// before the expiry sweep cancels it.
	PaymentWindow time.Duration
	// Price is the flat consultation price attached to new reservations.
	Price  float64
	Logger *zap.Logger
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func (s *DefaultReservationService) CreateReservation(ctx context.Context, slot models.Slot, who models.Identity) (*models.Reservation, error) {
	res := &models.Reservation{
		ID:             uuid.New().String(),
		ProfessionalID: slot.ProfessionalID,
		UserID:         who.UserID,
		Date:           slot.Date,
		Start:          slot.Start,
		Duration:       slot.Duration,
		Status:         models.ReservationPending,
		Price:          s.Price,
	}

	if err := s.Repo.Create(ctx, res); err != nil {
		if errors.Is(err, reservationRepo.ErrDuplicateSlot) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.Events.Emit(ctx, notification.Event{
		Type:           notification.EventReservationCreated,
		ReservationID:  res.ID,
		UserID:         res.UserID,
		ProfessionalID: res.ProfessionalID,
	})
	return res, nil
}

func (s *DefaultReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, reservationRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return res, err
}

func (s *DefaultReservationService) ListUserReservations(ctx context.Context, who models.Identity) ([]models.Reservation, error) {
	return s.Repo.ListByUser(ctx, who.UserID)
}

func (s *DefaultReservationService) ListCalendar(ctx context.Context, who models.Identity, date string) ([]models.Reservation, error) {
	return s.Repo.ListByProfessionalDate(ctx, who.UserID, date)
}

func (s *DefaultReservationService) CancelReservation(ctx context.Context, id string, who models.Identity) error {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.UserID != who.UserID {
		return ErrNotOwner
	}

	// Re-check status under the same serialization point used for creation:
	// a cancel racing a payment commit must observe CONFIRMED and fail, not
	// partially succeed.
	ok, err := s.Repo.Transition(ctx, id,
		[]models.ReservationStatus{models.ReservationPending, models.ReservationAwaitingPayment},
		models.ReservationCancelled,
		reservationRepo.TransitionUpdate{Active: boolPtr(false)},
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	// Mirror the terminal close flag onto the consultation, if one exists.
	if err := s.Consultations.CloseByReservation(ctx, id); err != nil {
		s.Logger.Warn("failed to close consultation after cancellation",
			zap.String("reservationId", id), zap.Error(err))
	}

	s.Events.Emit(ctx, notification.Event{
		Type:           notification.EventReservationCancelled,
		ReservationID:  id,
		UserID:         res.UserID,
		ProfessionalID: res.ProfessionalID,
	})
	return nil
}

func (s *DefaultReservationService) MarkAwaitingPayment(ctx context.Context, id string) error {
	ok, err := s.Repo.Transition(ctx, id,
		[]models.ReservationStatus{models.ReservationPending},
		models.ReservationAwaitingPayment,
		reservationRepo.TransitionUpdate{},
	)
	if err != nil {
		return err
	}
	if !ok {
		return s.classifyFailedTransition(ctx, id)
	}

	if err := s.Expiry.ScheduleExpiry(ctx, id, s.PaymentWindow); err != nil {
		// The periodic sweep will still catch it.
		s.Logger.Warn("failed to schedule expiry task",
			zap.String("reservationId", id), zap.Error(err))
	}
	return nil
}

func (s *DefaultReservationService) ConfirmPayment(ctx context.Context, id, paymentRef string) error {
	ok, err := s.Repo.Transition(ctx, id,
		[]models.ReservationStatus{models.ReservationAwaitingPayment},
		models.ReservationConfirmed,
		reservationRepo.TransitionUpdate{PaymentRef: strPtr(paymentRef)},
	)
	if err != nil {
		return err
	}
	if !ok {
		res, getErr := s.GetReservation(ctx, id)
		if getErr != nil {
			return getErr
		}
		// Same provider transaction applied twice: already confirmed with
		// this reference, nothing to do.
		if res.PaymentRef == paymentRef &&
			(res.Status == models.ReservationConfirmed || res.Status == models.ReservationCompleted) {
			return nil
		}
		return ErrInvalidTransition
	}

	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	cons := &models.Consultation{
		ID:             uuid.New().String(),
		ReservationID:  res.ID,
		ParticipantIDs: []string{res.UserID, res.ProfessionalID},
		ScheduledAt:    scheduledAt(res.Date, res.Start),
	}
	if err := s.Consultations.Create(ctx, cons); err != nil {
		// The unique reservation_id index backstops exactly-once creation.
		if !errors.Is(err, consultationRepo.ErrAlreadyExists) {
			return fmt.Errorf("failed to create consultation: %w", err)
		}
	}

	s.Events.Emit(ctx, notification.Event{
		Type:           notification.EventReservationConfirmed,
		ReservationID:  res.ID,
		ConsultationID: cons.ID,
		UserID:         res.UserID,
		ProfessionalID: res.ProfessionalID,
	})
	return nil
}

func (s *DefaultReservationService) CompleteReservation(ctx context.Context, id string, who models.Identity) error {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.ProfessionalID != who.UserID {
		return ErrNotOwner
	}

	ok, err := s.Repo.Transition(ctx, id,
		[]models.ReservationStatus{models.ReservationConfirmed},
		models.ReservationCompleted,
		reservationRepo.TransitionUpdate{},
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	s.Events.Emit(ctx, notification.Event{
		Type:           notification.EventReservationCompleted,
		ReservationID:  id,
		UserID:         res.UserID,
		ProfessionalID: res.ProfessionalID,
	})
	return nil
}

// classifyFailedTransition turns a zero-match conditional update into the
// right caller-facing error.
func (s *DefaultReservationService) classifyFailedTransition(ctx context.Context, id string) error {
	if _, err := s.GetReservation(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// scheduledAt converts a "2006-01-02" date string plus minutes from midnight
// into an absolute timestamp.
func scheduledAt(date string, startMinute int) time.Time {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	return day.Add(time.Duration(startMinute) * time.Minute)
}
