package scheduling

import (
	"context"
	"fmt"

	availabilityRepo "mindbridge/database/repository/availability"
	reservationRepo "mindbridge/database/repository/reservation"
	"mindbridge/models"
)

// SlotService computes bookable slots for a professional.
type SlotService interface {
	// ListBookableSlots returns every open slot for the professional on the
	// given date: availability decomposed into fixed-duration units, minus
	// start times held by any non-cancelled reservation.
	ListBookableSlots(ctx context.Context, professionalID, date string) ([]models.Slot, error)
}

// DefaultSlotService is the production implementation.
type DefaultSlotService struct {
	Availability availabilityRepo.AvailabilityRepository
	Reservations reservationRepo.ReservationRepository
	// Duration is the fixed slot length in minutes.
	Duration int
}

func (s *DefaultSlotService) ListBookableSlots(ctx context.Context, professionalID, date string) ([]models.Slot, error) {
	blocks, err := s.Availability.ListByProfessionalDate(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	if len(blocks) == 0 {
		return []models.Slot{}, nil
	}

	starts, err := s.Reservations.OccupiedStarts(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupied starts: %w", err)
	}
	occupied := make(map[int]bool, len(starts))
	for _, t := range starts {
		occupied[t] = true
	}

	perBlock := make([][]models.Slot, 0, len(blocks))
	for _, block := range blocks {
		perBlock = append(perBlock, GenerateSlots(block, s.Duration, occupied))
	}

	merged := MergeSlots(perBlock)
	if merged == nil {
		merged = []models.Slot{}
	}
	return merged, nil
}
