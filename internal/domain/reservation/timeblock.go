package reservation

import "time"

// BlockSizeMinutes is the fixed granularity every reservation is snapped to.
// A 35-minute service occupies 4 blocks (40 minutes), so interval comparisons
// between reservations are always made on the same grid.
const BlockSizeMinutes = 10

// BlocksNeeded returns the number of blocks a service of the given duration
// occupies, rounding up.
func BlocksNeeded(durationMinutes int) int {
	return (durationMinutes + BlockSizeMinutes - 1) / BlockSizeMinutes
}

// EffectiveDuration returns the duration in minutes actually reserved after
// snapping to the block grid.
func EffectiveDuration(durationMinutes int) int {
	return BlocksNeeded(durationMinutes) * BlockSizeMinutes
}

// ComputeEndTime calculates the reservation end from the start time and the
// raw service duration, rounded up to whole blocks.
func ComputeEndTime(start time.Time, durationMinutes int) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, NewValidationError("time_block", "start time is required")
	}
	if durationMinutes <= 0 {
		return time.Time{}, NewValidationError("time_block", "service duration must be greater than zero")
	}
	return start.Add(time.Duration(EffectiveDuration(durationMinutes)) * time.Minute), nil
}
