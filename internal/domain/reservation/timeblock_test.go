package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksNeeded(t *testing.T) {
	tests := []struct {
		minutes int
		blocks  int
	}{
		{1, 1},
		{9, 1},
		{10, 1},
		{11, 2},
		{20, 2},
		{35, 4},
		{60, 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.blocks, BlocksNeeded(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestEffectiveDuration_RoundsUpToFullBlocks(t *testing.T) {
	assert.Equal(t, 40, EffectiveDuration(35))
	assert.Equal(t, 10, EffectiveDuration(1))
	assert.Equal(t, 30, EffectiveDuration(30))
}

func TestComputeEndTime(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	end, err := ComputeEndTime(start, 35)
	require.NoError(t, err)
	assert.Equal(t, start.Add(40*time.Minute), end)

	end, err = ComputeEndTime(start, 30)
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Minute), end)
}

func TestComputeEndTime_InvalidInputs(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := ComputeEndTime(time.Time{}, 30)
	assert.Error(t, err)

	_, err = ComputeEndTime(start, 0)
	assert.Error(t, err)

	_, err = ComputeEndTime(start, -10)
	assert.Error(t, err)
}
