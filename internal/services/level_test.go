// internal/services/level_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelink/storelink-backend/internal/models"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		completed int
		expected  models.UserLevel
	}{
		{0, models.UserLevelBronze},
		{9, models.UserLevelBronze},
		{10, models.UserLevelSilver},
		{49, models.UserLevelSilver},
		{50, models.UserLevelGold},
		{500, models.UserLevelGold},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelFor(tt.completed, 10, 50),
			"completed=%d", tt.completed)
	}
}

func TestLevelForMonotonic(t *testing.T) {
	rank := map[models.UserLevel]int{
		models.UserLevelBronze: 0,
		models.UserLevelSilver: 1,
		models.UserLevelGold:   2,
	}

	prev := LevelFor(0, 10, 50)
	for completed := 1; completed <= 100; completed++ {
		level := LevelFor(completed, 10, 50)
		assert.GreaterOrEqual(t, rank[level], rank[prev],
			"level dropped at completed=%d", completed)
		prev = level
	}
}

func TestProgressForNewAffiliate(t *testing.T) {
	progress := ProgressFor(0, 10, 50)

	assert.Equal(t, models.UserLevelBronze, progress.CurrentLevel)
	assert.NotNil(t, progress.NextLevel)
	assert.Equal(t, models.UserLevelSilver, *progress.NextLevel)
	assert.Equal(t, 10, progress.OrdersToNextLevel)
	assert.Equal(t, 0.0, progress.ProgressPercent)
}

func TestProgressForSilver(t *testing.T) {
	progress := ProgressFor(30, 10, 50)

	assert.Equal(t, models.UserLevelSilver, progress.CurrentLevel)
	assert.Equal(t, models.UserLevelGold, *progress.NextLevel)
	assert.Equal(t, 20, progress.OrdersToNextLevel)
	assert.InDelta(t, 50.0, progress.ProgressPercent, 1e-9)
}

func TestProgressForGoldTerminal(t *testing.T) {
	progress := ProgressFor(80, 10, 50)

	assert.Equal(t, models.UserLevelGold, progress.CurrentLevel)
	assert.Nil(t, progress.NextLevel)
	assert.Equal(t, 0, progress.OrdersToNextLevel)
	assert.Equal(t, 100.0, progress.ProgressPercent)
}

func TestProgressPercentClamped(t *testing.T) {
	for completed := 0; completed <= 60; completed++ {
		progress := ProgressFor(completed, 10, 50)
		assert.GreaterOrEqual(t, progress.ProgressPercent, 0.0)
		assert.LessOrEqual(t, progress.ProgressPercent, 100.0)
	}
}

func TestLevelForIsPure(t *testing.T) {
	// Same inputs, same output, no hidden state.
	for i := 0; i < 5; i++ {
		assert.Equal(t, models.UserLevelSilver, LevelFor(25, 10, 50))
	}
}
