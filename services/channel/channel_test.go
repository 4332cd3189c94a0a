package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	consultationRepo "mindbridge/database/repository/consultation"
	"mindbridge/models"
	"mindbridge/services/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memMessages persists messages in arrival order, assigning sequence
// numbers per consultation.
type memMessages struct {
	mu   sync.Mutex
	byID map[string][]models.Message
}

func newMemMessages() *memMessages {
	return &memMessages{byID: make(map[string][]models.Message)}
}

func (m *memMessages) Create(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.Seq = int64(len(m.byID[msg.ConsultationID]) + 1)
	m.byID[msg.ConsultationID] = append(m.byID[msg.ConsultationID], *msg)
	return nil
}

func (m *memMessages) ListByConsultation(_ context.Context, consultationID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message{}, m.byID[consultationID]...), nil
}

func (m *memMessages) count(consultationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID[consultationID])
}

// stubConsultations serves a fixed consultation set.
type stubConsultations struct {
	byID map[string]*models.Consultation
}

func (s *stubConsultations) Create(context.Context, *models.Consultation) error { return nil }
func (s *stubConsultations) GetByID(_ context.Context, id string) (*models.Consultation, error) {
	cons, ok := s.byID[id]
	if !ok {
		return nil, consultationRepo.ErrNotFound
	}
	out := *cons
	return &out, nil
}
func (s *stubConsultations) GetByReservation(_ context.Context, reservationID string) (*models.Consultation, error) {
	for _, cons := range s.byID {
		if cons.ReservationID == reservationID {
			out := *cons
			return &out, nil
		}
	}
	return nil, consultationRepo.ErrNotFound
}
func (s *stubConsultations) CloseByReservation(context.Context, string) error { return nil }

// stubReservations answers GetReservation with a fixed status per id.
type stubReservations struct {
	statuses map[string]models.ReservationStatus
}

func (s *stubReservations) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	status, ok := s.statuses[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return &models.Reservation{ID: id, Status: status}, nil
}

func (s *stubReservations) CreateReservation(context.Context, models.Slot, models.Identity) (*models.Reservation, error) {
	return nil, nil
}
func (s *stubReservations) ListUserReservations(context.Context, models.Identity) ([]models.Reservation, error) {
	return nil, nil
}
func (s *stubReservations) ListCalendar(context.Context, models.Identity, string) ([]models.Reservation, error) {
	return nil, nil
}
func (s *stubReservations) CancelReservation(context.Context, string, models.Identity) error {
	return nil
}
func (s *stubReservations) MarkAwaitingPayment(context.Context, string) error { return nil }
func (s *stubReservations) ConfirmPayment(context.Context, string, string) error {
	return nil
}
func (s *stubReservations) CompleteReservation(context.Context, string, models.Identity) error {
	return nil
}
func (s *stubReservations) ExpireOne(context.Context, string) error { return nil }
func (s *stubReservations) ExpireStale(context.Context, time.Time) (int, error) {
	return 0, nil
}

// failingBroker always refuses publishes.
type failingBroker struct {
	MemoryBroker
}

func (b *failingBroker) Publish(context.Context, string, []byte) error {
	return errors.New("transport down")
}

func consultationFixture(id, reservationID string, closed bool) *models.Consultation {
	return &models.Consultation{
		ID:             id,
		ReservationID:  reservationID,
		ParticipantIDs: []string{"user-1", "prof-1"},
		ScheduledAt:    time.Now().Add(time.Hour),
		Closed:         closed,
	}
}

func newTestChannel(broker Broker) (*DefaultChannelService, *memMessages) {
	messages := newMemMessages()
	svc := &DefaultChannelService{
		Broker:   broker,
		Messages: messages,
		Consultations: &stubConsultations{byID: map[string]*models.Consultation{
			"cons-a": consultationFixture("cons-a", "res-a", false),
			"cons-b": consultationFixture("cons-b", "res-b", false),
			"cons-x": consultationFixture("cons-x", "res-x", true),
			"cons-c": consultationFixture("cons-c", "res-c", false),
		}},
		Reservations: &stubReservations{statuses: map[string]models.ReservationStatus{
			"res-a": models.ReservationConfirmed,
			"res-b": models.ReservationConfirmed,
			"res-x": models.ReservationConfirmed,
			"res-c": models.ReservationCancelled,
		}},
		PublishAttempts: 2,
		Logger:          zap.NewNop(),
	}
	return svc, messages
}

func receive(t *testing.T, stream *Stream) models.Message {
	t.Helper()
	select {
	case msg, ok := <-stream.C:
		require.True(t, ok, "stream closed before delivery")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return models.Message{}
	}
}

func assertSilent(t *testing.T, stream *Stream) {
	t.Helper()
	select {
	case msg := <-stream.C:
		t.Fatalf("unexpected message delivered: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendMessageDeliversToSubscribers(t *testing.T) {
	svc, messages := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	stream, err := svc.Subscribe(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"})
	require.NoError(t, err)
	defer stream.Close()

	sent, err := svc.SendMessage(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "hello"})
	require.NoError(t, err)

	got := receive(t, stream)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "user-1", got.SenderID)
	assert.Equal(t, 1, messages.count("cons-a"))
}

func TestTopicIsolationBetweenConsultations(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	streamA, err := svc.Subscribe(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"})
	require.NoError(t, err)
	defer streamA.Close()

	streamB, err := svc.Subscribe(ctx, "cons-b", models.Identity{UserID: "user-1", Role: "user"})
	require.NoError(t, err)
	defer streamB.Close()

	_, err = svc.SendMessage(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "only for A"})
	require.NoError(t, err)

	got := receive(t, streamA)
	assert.Equal(t, "cons-a", got.ConsultationID)
	assertSilent(t, streamB)
}

func TestSendMessageClosedConsultationRejected(t *testing.T) {
	svc, messages := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cons-x", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "too late"})
	assert.ErrorIs(t, err, ErrConsultationClosed)
	assert.Equal(t, 0, messages.count("cons-x"))
}

func TestSendMessageCancelledReservationRejected(t *testing.T) {
	svc, messages := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cons-c", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "too late"})
	assert.ErrorIs(t, err, ErrConsultationClosed)
	assert.Equal(t, 0, messages.count("cons-c"))
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	svc, messages := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cons-a", models.Identity{UserID: "intruder", Role: "user"},
		models.SendMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Equal(t, 0, messages.count("cons-a"))
}

func TestSendMessageNoAckWhenPublishFails(t *testing.T) {
	svc, messages := newTestChannel(&failingBroker{})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrDisconnected)

	// Persisted but unacknowledged: the client retry may duplicate, delivery
	// is at-least-once.
	assert.Equal(t, 1, messages.count("cons-a"))
}

func TestHistoryPreservesArrivalOrder(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())
	ctx := context.Background()
	who := models.Identity{UserID: "user-1", Role: "user"}

	for _, content := range []string{"first", "second", "third"} {
		_, err := svc.SendMessage(ctx, "cons-a", who, models.SendMessageRequest{Content: content})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "cons-a", who)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "third", history[2].Content)
	assert.Equal(t, int64(1), history[0].Seq)
	assert.Equal(t, int64(3), history[2].Seq)
}

func TestHistoryUnknownConsultation(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())

	_, err := svc.History(context.Background(), "cons-missing", models.Identity{UserID: "user-1", Role: "user"})
	assert.ErrorIs(t, err, ErrConsultationNotFound)
}

func TestConsultationForReservationParticipantsOnly(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	cons, err := svc.ConsultationForReservation(ctx, "res-a", models.Identity{UserID: "user-1", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, "cons-a", cons.ID)

	_, err = svc.ConsultationForReservation(ctx, "res-a", models.Identity{UserID: "intruder", Role: "user"})
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.ConsultationForReservation(ctx, "res-unknown", models.Identity{UserID: "user-1", Role: "user"})
	assert.ErrorIs(t, err, ErrConsultationNotFound)
}

func TestHistoryRequiresParticipant(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "cons-a", models.Identity{UserID: "user-1", Role: "user"},
		models.SendMessageRequest{Content: "private"})
	require.NoError(t, err)

	_, err = svc.History(ctx, "cons-a", models.Identity{UserID: "intruder", Role: "user"})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSubscribeRequiresParticipant(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())

	_, err := svc.Subscribe(context.Background(), "cons-a", models.Identity{UserID: "intruder", Role: "user"})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMemoryBrokerPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	broker := NewMemoryBroker()
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "topic")
	require.NoError(t, err)

	// Nobody drains the subscription; every publish must still return.
	errc := make(chan error, 1)
	go func() {
		for i := 0; i < 64; i++ {
			if err := broker.Publish(ctx, "topic", []byte("payload")); err != nil {
				errc <- err
				return
			}
		}
		if err := sub.Close(); err != nil {
			errc <- err
			return
		}
		errc <- broker.Publish(ctx, "topic", nil)
	}()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publish or close blocked on a slow subscriber")
	}
}

func TestStreamCloseWithUndeliveredBacklog(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())
	ctx := context.Background()
	who := models.Identity{UserID: "user-1", Role: "user"}

	stream, err := svc.Subscribe(ctx, "cons-a", who)
	require.NoError(t, err)

	// Fill the stream buffer and beyond without reading anything.
	for i := 0; i < 40; i++ {
		if _, err := svc.SendMessage(ctx, "cons-a", who, models.SendMessageRequest{Content: "m"}); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	require.NoError(t, stream.Close())

	// The decode goroutine must wind down and close the channel even though
	// the consumer never drained its backlog.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-stream.C:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream channel never closed after Close")
		}
	}
}

func TestSubscribeClosedConsultationRejected(t *testing.T) {
	svc, _ := newTestChannel(NewMemoryBroker())

	_, err := svc.Subscribe(context.Background(), "cons-x", models.Identity{UserID: "user-1", Role: "user"})
	assert.ErrorIs(t, err, ErrConsultationClosed)
}
