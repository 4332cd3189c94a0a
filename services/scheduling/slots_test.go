package scheduling

import (
	"context"
	"testing"
	"time"

	reservationRepo "mindbridge/database/repository/reservation"
	"mindbridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(start, end int) models.AvailabilityBlock {
	return models.AvailabilityBlock{
		ID:             "blk-1",
		ProfessionalID: "prof-1",
		Date:           "2025-03-10",
		Start:          start,
		End:            end,
	}
}

func TestGenerateSlotsDecomposesBlock(t *testing.T) {
	// 09:00 to 10:00 at 30 minutes yields exactly 09:00 and 09:30.
	slots := GenerateSlots(block(540, 600), 30, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, 540, slots[0].Start)
	assert.Equal(t, 570, slots[1].Start)
	for _, s := range slots {
		assert.Equal(t, "prof-1", s.ProfessionalID)
		assert.Equal(t, "2025-03-10", s.Date)
		assert.Equal(t, 30, s.Duration)
	}
}

func TestGenerateSlotsDropsTrailingRemainder(t *testing.T) {
	// 09:00 to 10:10 at 30 minutes: the 10:00 slot would overrun the block.
	slots := GenerateSlots(block(540, 610), 30, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, 570, slots[1].Start)
}

func TestGenerateSlotsSlotCount(t *testing.T) {
	cases := []struct {
		start, end, duration, want int
	}{
		{540, 600, 30, 2},
		{540, 599, 30, 1},
		{540, 540, 30, 0},
		{600, 540, 30, 0},
		{0, 1440, 60, 24},
		{540, 600, 0, 0},
	}
	for _, tc := range cases {
		got := GenerateSlots(block(tc.start, tc.end), tc.duration, nil)
		assert.Lenf(t, got, tc.want, "block [%d,%d) duration %d", tc.start, tc.end, tc.duration)
	}
}

func TestGenerateSlotsExcludesOccupiedStarts(t *testing.T) {
	occupied := map[int]bool{570: true}
	slots := GenerateSlots(block(540, 660), 30, occupied)

	starts := make([]int, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []int{540, 600, 630}, starts)
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	occupied := map[int]bool{600: true}
	first := GenerateSlots(block(540, 720), 30, occupied)
	second := GenerateSlots(block(540, 720), 30, occupied)
	assert.Equal(t, first, second)
}

func TestMergeSlotsDeduplicatesAndSorts(t *testing.T) {
	// Two overlapping blocks emit 570 twice; the listing keeps one.
	a := GenerateSlots(block(540, 630), 30, nil)
	b := GenerateSlots(block(570, 690), 30, nil)

	merged := MergeSlots([][]models.Slot{a, b})

	starts := make([]int, 0, len(merged))
	for _, s := range merged {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []int{540, 570, 600, 630}, starts)
}

// stubAvailability serves a fixed set of blocks.
type stubAvailability struct {
	blocks []models.AvailabilityBlock
}

func (s *stubAvailability) Create(context.Context, *models.AvailabilityBlock) error { return nil }
func (s *stubAvailability) GetByID(context.Context, string) (*models.AvailabilityBlock, error) {
	return nil, nil
}
func (s *stubAvailability) ListByProfessionalDate(context.Context, string, string) ([]models.AvailabilityBlock, error) {
	return s.blocks, nil
}
func (s *stubAvailability) Delete(context.Context, string) error { return nil }

// stubOccupancy implements the reservation repository with fixed occupied
// start minutes; only OccupiedStarts matters here.
type stubOccupancy struct {
	starts []int
}

func (s *stubOccupancy) Create(context.Context, *models.Reservation) error { return nil }
func (s *stubOccupancy) GetByID(context.Context, string) (*models.Reservation, error) {
	return nil, reservationRepo.ErrNotFound
}
func (s *stubOccupancy) Transition(context.Context, string, []models.ReservationStatus, models.ReservationStatus, reservationRepo.TransitionUpdate) (bool, error) {
	return false, nil
}
func (s *stubOccupancy) OccupiedStarts(context.Context, string, string) ([]int, error) {
	return s.starts, nil
}
func (s *stubOccupancy) ListByUser(context.Context, string) ([]models.Reservation, error) {
	return nil, nil
}
func (s *stubOccupancy) ListByProfessionalDate(context.Context, string, string) ([]models.Reservation, error) {
	return nil, nil
}
func (s *stubOccupancy) StaleAwaiting(context.Context, time.Time) ([]models.Reservation, error) {
	return nil, nil
}

func TestListBookableSlotsSubtractsReservations(t *testing.T) {
	avail := &stubAvailability{blocks: []models.AvailabilityBlock{block(540, 660)}}
	reservations := &stubOccupancy{starts: []int{600}}

	svc := &DefaultSlotService{
		Availability: avail,
		Reservations: reservations,
		Duration:     30,
	}

	slots, err := svc.ListBookableSlots(context.Background(), "prof-1", "2025-03-10")
	require.NoError(t, err)

	starts := make([]int, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []int{540, 570, 630}, starts)
}

func TestListBookableSlotsNoAvailability(t *testing.T) {
	svc := &DefaultSlotService{
		Availability: &stubAvailability{},
		Reservations: &stubOccupancy{},
		Duration:     30,
	}

	slots, err := svc.ListBookableSlots(context.Background(), "prof-1", "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, slots)
}
