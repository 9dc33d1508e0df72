// Package experience converts accumulated reading time and social bonuses
// into levels. Everything here is pure and safe for concurrent use.
package experience

import "math"

const (
	// ReadingTimeToExpRatio is the number of seconds of reading worth one
	// experience point.
	ReadingTimeToExpRatio = 1
	// BaseExp is the experience needed to go from level 1 to level 2.
	BaseExp = 800
	// LevelMultiplier is the geometric growth of each level band.
	LevelMultiplier = 1.1

	// ExpPerLikeReceived and ExpPerCommentWritten are the social bonuses.
	ExpPerLikeReceived   = 60
	ExpPerCommentWritten = 30
)

// LevelInfo is computed on demand and never stored as a whole.
type LevelInfo struct {
	Level                      int `json:"level"`
	Experience                 int `json:"experience"`
	ReadingExperience          int `json:"reading_experience"`
	BonusExperience            int `json:"bonus_experience"`
	ExpToNextLevel             int `json:"exp_to_next_level"`
	Progress                   int `json:"progress"`
	ExpRequiredForCurrentLevel int `json:"exp_required_for_current_level"`
	ExpRequiredForNextLevel    int `json:"exp_required_for_next_level"`
}

// ExpRequiredForLevel returns the cumulative experience needed to reach level.
// The series is summed in float64 and floored once at the end. Thresholds
// past the int range saturate at math.MaxInt.
func ExpRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}

	var total float64
	for i := 0; i <= level-2; i++ {
		total += BaseExp * math.Pow(LevelMultiplier, float64(i))
		if total >= math.MaxInt {
			return math.MaxInt
		}
	}

	return int(math.Floor(total))
}

// LevelForExperience returns the highest level whose threshold does not exceed exp.
// A saturated threshold is never reached.
func LevelForExperience(exp int) int {
	level := 1
	for {
		next := ExpRequiredForLevel(level + 1)
		if next == math.MaxInt || exp < next {
			return level
		}
		level++
	}
}

// ExpSpanForLevel is the width of the level's experience band.
func ExpSpanForLevel(level int) int {
	return ExpRequiredForLevel(level+1) - ExpRequiredForLevel(level)
}

// ProgressWithinLevel returns how far exp is through level's band, 0 to 100.
func ProgressWithinLevel(exp, level int) int {
	span := ExpSpanForLevel(level)
	if span <= 0 {
		return 100
	}

	progress := math.Round(float64(exp-ExpRequiredForLevel(level)) / float64(span) * 100)
	switch {
	case progress < 0:
		return 0
	case progress > 100:
		return 100
	}

	return int(progress)
}

// ReadingTimeToExperience converts seconds of reading into experience.
func ReadingTimeToExperience(seconds int) int {
	if seconds <= 0 {
		return 0
	}

	return seconds / ReadingTimeToExpRatio
}

// ExperienceToReadingTime converts experience back into seconds of reading.
// With a ratio other than 1 the round trip loses the truncated remainder.
func ExperienceToReadingTime(exp int) int {
	if exp <= 0 {
		return 0
	}

	return exp * ReadingTimeToExpRatio
}

// BonusExperience is the experience awarded for social activity.
func BonusExperience(likesReceived, commentsWritten int) int {
	return max(likesReceived, 0)*ExpPerLikeReceived + max(commentsWritten, 0)*ExpPerCommentWritten
}

// ComputeLevelInfo builds the full level picture for a reader.
func ComputeLevelInfo(totalReadingTimeSeconds, bonusExperience int) LevelInfo {
	readingExp := ReadingTimeToExperience(totalReadingTimeSeconds)
	bonus := max(bonusExperience, 0)
	total := math.MaxInt
	if bonus <= math.MaxInt-readingExp {
		total = readingExp + bonus
	}
	level := LevelForExperience(total)

	return LevelInfo{
		Level:                      level,
		Experience:                 total,
		ReadingExperience:          readingExp,
		BonusExperience:            bonus,
		ExpToNextLevel:             ExpSpanForLevel(level),
		Progress:                   ProgressWithinLevel(total, level),
		ExpRequiredForCurrentLevel: ExpRequiredForLevel(level),
		ExpRequiredForNextLevel:    ExpRequiredForLevel(level + 1),
	}
}

// ReadingTimeToNextLevel is how many seconds of reading are left before the next level.
func ReadingTimeToNextLevel(info LevelInfo) int {
	return ExperienceToReadingTime(info.ExpRequiredForNextLevel - info.Experience)
}
