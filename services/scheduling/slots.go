package scheduling

import (
	"sort"

	"mindbridge/models"
)

// GenerateSlots deterministically decomposes one availability block into
// fixed-duration candidate slots, excluding occupied start minutes.
//
// A start minute t is emitted iff block.Start <= t and t+duration <= block.End
// and t is not occupied. A trailing remainder shorter than the duration is
// simply unreachable; end <= start yields an empty sequence. Identical inputs
// always produce an identical, identically ordered output.
func GenerateSlots(block models.AvailabilityBlock, duration int, occupied map[int]bool) []models.Slot {
	slots := []models.Slot{}
	if duration <= 0 || block.End <= block.Start {
		return slots
	}

	for t := block.Start; t+duration <= block.End; t += duration {
		if occupied[t] {
			continue
		}
		slots = append(slots, models.Slot{
			ProfessionalID: block.ProfessionalID,
			Date:           block.Date,
			Start:          t,
			Duration:       duration,
		})
	}
	return slots
}

// MergeSlots combines the per-block candidate sequences for one professional
// and date into a single sorted list. Overlapping blocks may emit the same
// start minute more than once; the listing keeps the first occurrence.
func MergeSlots(perBlock [][]models.Slot) []models.Slot {
	seen := make(map[int]bool)
	var merged []models.Slot

	for _, slots := range perBlock {
		for _, s := range slots {
			if seen[s.Start] {
				continue
			}
			seen[s.Start] = true
			merged = append(merged, s)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}
