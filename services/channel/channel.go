package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	consultationRepo "mindbridge/database/repository/consultation"
	messageRepo "mindbridge/database/repository/message"
	"mindbridge/models"
	"mindbridge/services/reservation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrConsultationClosed means the linked reservation is cancelled (or
	// the consultation carries its terminal close flag); no further
	// messages are accepted.
	ErrConsultationClosed = errors.New("consultation is closed")

	// ErrConsultationNotFound means no consultation matches the given id.
	ErrConsultationNotFound = errors.New("consultation not found")

	// ErrNotParticipant means the sender is not part of the consultation.
	ErrNotParticipant = errors.New("sender is not a consultation participant")

	// ErrDisconnected means the transport rejected the publish after
	// retries. The message may be persisted; the caller got no delivery
	// acknowledgement and should retry.
	ErrDisconnected = errors.New("channel transport disconnected")
)

// ChannelService provides real-time, topic-scoped message delivery for one
// consultation. It reads reservation and consultation state but never
// mutates either.
type ChannelService interface {
	// Subscribe attaches a participant to the consultation's live message
	// stream. Historical messages come from History once at subscribe
	// time; they are not replayed through the stream.
	Subscribe(ctx context.Context, consultationID string, who models.Identity) (*Stream, error)
	// SendMessage validates, persists, and publishes a message. A nil
	// error is the delivery acknowledgement.
	SendMessage(ctx context.Context, consultationID string, who models.Identity, req models.SendMessageRequest) (*models.Message, error)
	// History returns all persisted messages in (sentAt, seq) order,
	// visible to participants only.
	History(ctx context.Context, consultationID string, who models.Identity) ([]models.Message, error)
	// ConsultationForReservation resolves the consultation created when the
	// reservation was paid, for participants only. Clients call it once to
	// learn the channel topic.
	ConsultationForReservation(ctx context.Context, reservationID string, who models.Identity) (*models.Consultation, error)
}

// Stream is one live subscription. C is closed when the underlying
// subscription dies; the consumer resubscribes.
type Stream struct {
	C <-chan models.Message

	sub       Subscription
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.sub.Close()
}

// DefaultChannelService is the production implementation.
type DefaultChannelService struct {
	Broker        Broker
	Messages      messageRepo.MessageRepository
	Consultations consultationRepo.ConsultationRepository
	Reservations  reservation.ReservationService
	// PublishAttempts bounds transport retries per send.
	PublishAttempts int
	Logger          *zap.Logger
}

func (s *DefaultChannelService) Subscribe(ctx context.Context, consultationID string, who models.Identity) (*Stream, error) {
	cons, err := s.getOpenConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(cons, who) {
		return nil, ErrNotParticipant
	}

	sub, err := s.Broker.Subscribe(ctx, consultationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	out := make(chan models.Message, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for payload := range sub.Payloads() {
			var msg models.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				s.Logger.Warn("dropping undecodable channel payload",
					zap.String("consultationId", consultationID), zap.Error(err))
				continue
			}
			// An abandoned stream stops reading; exit on Close instead of
			// blocking here forever.
			select {
			case out <- msg:
			case <-done:
				return
			}
		}
	}()

	return &Stream{C: out, sub: sub, done: done}, nil
}

func (s *DefaultChannelService) SendMessage(ctx context.Context, consultationID string, who models.Identity, req models.SendMessageRequest) (*models.Message, error) {
	cons, err := s.getOpenConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if !isParticipant(cons, who) {
		return nil, ErrNotParticipant
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		SenderID:       who.UserID,
		Content:        req.Content,
		Anonymous:      req.Anonymous,
		SentAt:         time.Now(),
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	if err := s.publishWithRetry(ctx, consultationID, payload); err != nil {
		// Persisted but not acknowledged: the caller retries, delivery is
		// at-least-once.
		return nil, err
	}
	return msg, nil
}

func (s *DefaultChannelService) History(ctx context.Context, consultationID string, who models.Identity) ([]models.Message, error) {
	cons, err := s.getConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(cons, who) {
		return nil, ErrNotParticipant
	}
	return s.Messages.ListByConsultation(ctx, consultationID)
}

func isParticipant(cons *models.Consultation, who models.Identity) bool {
	for _, id := range cons.ParticipantIDs {
		if id == who.UserID {
			return true
		}
	}
	return false
}

func (s *DefaultChannelService) ConsultationForReservation(ctx context.Context, reservationID string, who models.Identity) (*models.Consultation, error) {
	cons, err := s.Consultations.GetByReservation(ctx, reservationID)
	if errors.Is(err, consultationRepo.ErrNotFound) {
		return nil, ErrConsultationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isParticipant(cons, who) {
		return nil, ErrNotParticipant
	}
	return cons, nil
}

func (s *DefaultChannelService) publishWithRetry(ctx context.Context, topic string, payload []byte) error {
	attempts := s.PublishAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = s.Broker.Publish(ctx, topic, payload); lastErr == nil {
			return nil
		}
		s.Logger.Warn("publish failed",
			zap.String("consultationId", topic),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}
	return fmt.Errorf("%w: %v", ErrDisconnected, lastErr)
}

func (s *DefaultChannelService) getConsultation(ctx context.Context, consultationID string) (*models.Consultation, error) {
	cons, err := s.Consultations.GetByID(ctx, consultationID)
	if errors.Is(err, consultationRepo.ErrNotFound) {
		return nil, ErrConsultationNotFound
	}
	if err != nil {
		return nil, err
	}
	return cons, nil
}

// getOpenConsultation loads the consultation and checks, at call time, that
// its linked reservation is not cancelled.
func (s *DefaultChannelService) getOpenConsultation(ctx context.Context, consultationID string) (*models.Consultation, error) {
	cons, err := s.getConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if cons.Closed {
		return nil, ErrConsultationClosed
	}

	res, err := s.Reservations.GetReservation(ctx, cons.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationCancelled {
		return nil, ErrConsultationClosed
	}
	return cons, nil
}
