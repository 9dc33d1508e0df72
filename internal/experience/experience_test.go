package experience

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpRequiredForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: -3, want: 0},
		{level: 0, want: 0},
		{level: 1, want: 0},
		{level: 2, want: 800},
		{level: 3, want: 1680},
		{level: 4, want: 2648},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpRequiredForLevel(tt.level), "level %d", tt.level)
	}
}

func TestExpRequiredForLevel_StrictlyIncreasing(t *testing.T) {
	for level := 1; level < 200; level++ {
		require.Less(t, ExpRequiredForLevel(level), ExpRequiredForLevel(level+1), "level %d", level)
	}
}

func TestLevelForExperience(t *testing.T) {
	t.Run("KnownValues", func(t *testing.T) {
		assert.Equal(t, 1, LevelForExperience(0))
		assert.Equal(t, 1, LevelForExperience(799))
		assert.Equal(t, 2, LevelForExperience(800))
		assert.Equal(t, 2, LevelForExperience(1679))
		assert.Equal(t, 3, LevelForExperience(1680))
	})

	t.Run("NegativeClampsToFirstLevel", func(t *testing.T) {
		assert.Equal(t, 1, LevelForExperience(-1))
		assert.Equal(t, 1, LevelForExperience(-100000))
	})

	t.Run("Consistency", func(t *testing.T) {
		for exp := 0; exp < 2_000_000; exp += 997 {
			level := LevelForExperience(exp)
			require.LessOrEqual(t, ExpRequiredForLevel(level), exp, "exp %d", exp)
			require.Less(t, exp, ExpRequiredForLevel(level+1), "exp %d", exp)
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := LevelForExperience(0)
		for exp := 1; exp < 500_000; exp += 313 {
			level := LevelForExperience(exp)
			require.GreaterOrEqual(t, level, prev, "exp %d", exp)
			prev = level
		}
	})
}

func TestExpSpanForLevel(t *testing.T) {
	assert.Equal(t, 800, ExpSpanForLevel(1))
	assert.Equal(t, 880, ExpSpanForLevel(2))
	assert.Equal(t, 0, ExpSpanForLevel(0))
}

func TestProgressWithinLevel(t *testing.T) {
	t.Run("Bounds", func(t *testing.T) {
		for exp := -1000; exp < 50_000; exp += 137 {
			for level := 1; level <= 10; level++ {
				p := ProgressWithinLevel(exp, level)
				require.GreaterOrEqual(t, p, 0)
				require.LessOrEqual(t, p, 100)
			}
		}
	})

	t.Run("Rounding", func(t *testing.T) {
		assert.Equal(t, 0, ProgressWithinLevel(0, 1))
		assert.Equal(t, 50, ProgressWithinLevel(400, 1))
		assert.Equal(t, 1, ProgressWithinLevel(8, 1))
		assert.Equal(t, 0, ProgressWithinLevel(3, 1))
		assert.Equal(t, 100, ProgressWithinLevel(799, 1))
	})

	t.Run("ZeroSpan", func(t *testing.T) {
		assert.Equal(t, 100, ProgressWithinLevel(10, 0))
	})
}

func TestReadingTimeConversions(t *testing.T) {
	for _, s := range []int{0, 1, 59, 3600, 86_399, 1_000_000_000} {
		assert.Equal(t, s, ExperienceToReadingTime(ReadingTimeToExperience(s)), "seconds %d", s)
	}

	assert.Equal(t, 0, ReadingTimeToExperience(-10))
	assert.Equal(t, 0, ExperienceToReadingTime(-10))
}

func TestBonusExperience(t *testing.T) {
	assert.Equal(t, 0, BonusExperience(0, 0))
	assert.Equal(t, 3*ExpPerLikeReceived+2*ExpPerCommentWritten, BonusExperience(3, 2))
	assert.Equal(t, ExpPerCommentWritten, BonusExperience(-4, 1))
}

func TestComputeLevelInfo(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		info := ComputeLevelInfo(0, 0)
		assert.Equal(t, LevelInfo{
			Level:                      1,
			Experience:                 0,
			ReadingExperience:          0,
			BonusExperience:            0,
			ExpToNextLevel:             800,
			Progress:                   0,
			ExpRequiredForCurrentLevel: 0,
			ExpRequiredForNextLevel:    800,
		}, info)
	})

	t.Run("ExactThreshold", func(t *testing.T) {
		info := ComputeLevelInfo(800, 0)
		assert.Equal(t, 2, info.Level)
		assert.Equal(t, 800, info.ReadingExperience)
		assert.Equal(t, 0, info.Progress)
		assert.Equal(t, 880, info.ExpToNextLevel)
		assert.Equal(t, 800, info.ExpRequiredForCurrentLevel)
		assert.Equal(t, 1680, info.ExpRequiredForNextLevel)
	})

	t.Run("BonusAddsUp", func(t *testing.T) {
		info := ComputeLevelInfo(700, 100)
		assert.Equal(t, 2, info.Level)
		assert.Equal(t, 800, info.Experience)
		assert.Equal(t, 700, info.ReadingExperience)
		assert.Equal(t, 100, info.BonusExperience)
	})

	t.Run("NegativeInputsClamped", func(t *testing.T) {
		info := ComputeLevelInfo(-50, -50)
		assert.Equal(t, 1, info.Level)
		assert.Equal(t, 0, info.Experience)
		assert.Equal(t, 0, info.BonusExperience)
	})

	t.Run("Invariant", func(t *testing.T) {
		for seconds := 0; seconds < 1_000_000; seconds += 7919 {
			info := ComputeLevelInfo(seconds, seconds%500)
			require.LessOrEqual(t, info.ExpRequiredForCurrentLevel, info.Experience)
			require.Less(t, info.Experience, info.ExpRequiredForNextLevel)
			require.Equal(t, info.ExpRequiredForNextLevel-info.ExpRequiredForCurrentLevel, info.ExpToNextLevel)
		}
	})
}

func TestReadingTimeToNextLevel(t *testing.T) {
	info := ComputeLevelInfo(500, 0)
	assert.Equal(t, 300, ReadingTimeToNextLevel(info))
}

func TestIntRangeLimits(t *testing.T) {
	t.Run("ThresholdSaturates", func(t *testing.T) {
		assert.Equal(t, math.MaxInt, ExpRequiredForLevel(10_000))
		assert.Equal(t, math.MaxInt, ExpRequiredForLevel(math.MaxInt))
	})

	t.Run("LevelForExperience", func(t *testing.T) {
		for _, exp := range []int{math.MaxInt64 - 1, math.MaxInt64} {
			level := LevelForExperience(exp)
			require.Greater(t, level, 1)
			assert.LessOrEqual(t, ExpRequiredForLevel(level), exp)
			assert.Equal(t, math.MaxInt, ExpRequiredForLevel(level+1))
		}
	})

	tests := []struct {
		name    string
		seconds int
		bonus   int
	}{
		{name: "ReadingTimeAtMax", seconds: math.MaxInt64, bonus: 0},
		{name: "SumOverflows", seconds: math.MaxInt64, bonus: 10},
		{name: "BonusAtMax", seconds: 3600, bonus: math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ComputeLevelInfo(tt.seconds, tt.bonus)
			assert.Equal(t, math.MaxInt, info.Experience)
			assert.LessOrEqual(t, info.ExpRequiredForCurrentLevel, info.Experience)
			assert.Equal(t, math.MaxInt, info.ExpRequiredForNextLevel)
			assert.Positive(t, info.ExpToNextLevel)
			assert.Equal(t, 100, info.Progress)
			assert.Zero(t, ReadingTimeToNextLevel(info))
		})
	}
}
