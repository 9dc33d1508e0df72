package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/experience"
)

// UserStatistics is the denormalized per-user statistics document.
// Its _id is the user id.
type UserStatistics struct {
	UserID               primitive.ObjectID `bson:"_id"                    json:"user_id"`
	TotalReadingTime     int                `bson:"total_reading_time"     json:"total_reading_time"`
	TotalLikesReceived   int                `bson:"total_likes_received"   json:"total_likes_received"`
	TotalCommentsWritten int                `bson:"total_comments_written" json:"total_comments_written"`
	SessionsCount        int                `bson:"sessions_count"         json:"sessions_count"`
	TotalPagesRead       int                `bson:"total_pages_read"       json:"total_pages_read"`
	BooksFinished        int                `bson:"books_finished"         json:"books_finished"`
	Level                int                `bson:"level"                  json:"level"`
	Experience           int                `bson:"experience"             json:"experience"`
	Authors              map[string]int     `bson:"authors,omitempty"               json:"authors,omitempty"`
	Genres               map[string]int     `bson:"genres,omitempty"                json:"genres,omitempty"`
	SessionsByWeekday    map[string]int     `bson:"sessions_by_weekday,omitempty"   json:"sessions_by_weekday,omitempty"`
	ReadingTimeByMonth   map[string]int     `bson:"reading_time_by_month,omitempty" json:"reading_time_by_month,omitempty"`
	LastSessionAt        *time.Time         `bson:"last_session_at,omitempty"       json:"last_session_at,omitempty"`
	UpdatedAt            time.Time          `bson:"updated_at"             json:"updated_at"`
}

// BonusExperience is the social part of the reader's experience
func (s UserStatistics) BonusExperience() int {
	return experience.BonusExperience(s.TotalLikesReceived, s.TotalCommentsWritten)
}

// LevelInfo recomputes the level from the stored counters
func (s UserStatistics) LevelInfo() experience.LevelInfo {
	return experience.ComputeLevelInfo(s.TotalReadingTime, s.BonusExperience())
}

// CounterDelta is applied with a single atomic $inc.
// Weekday and Month name the histogram buckets Sessions and ReadingTime go to.
type CounterDelta struct {
	ReadingTime     int
	LikesReceived   int
	CommentsWritten int
	Sessions        int
	PagesRead       int
	Weekday         string
	Month           string
}

// SessionDelta is the counter change of adding (sign 1) or removing (sign -1) a session
func SessionDelta(s ReadingSession, sign int) CounterDelta {
	started := s.StartedAt.UTC()
	return CounterDelta{
		ReadingTime: sign * s.DurationSeconds,
		Sessions:    sign,
		PagesRead:   sign * s.PagesRead(),
		Weekday:     started.Weekday().String(),
		Month:       started.Format("2006-01"),
	}
}

func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// Aggregate is the result of scanning a reader's books and sessions
type Aggregate struct {
	TotalReadingTime     int
	TotalLikesReceived   int
	TotalCommentsWritten int
	SessionsCount        int
	TotalPagesRead       int
	BooksFinished        int
	Authors              map[string]int
	Genres               map[string]int
	SessionsByWeekday    map[string]int
	ReadingTimeByMonth   map[string]int
	LastSessionAt        *time.Time
}

// RankedCount is one entry of a frequency map, sorted for display
type RankedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopCounts returns the n most frequent keys, ties broken by name
func TopCounts(m map[string]int, n int) []RankedCount {
	out := make([]RankedCount, 0, len(m))
	for k, v := range m {
		out = append(out, RankedCount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}

	return out
}

// StatisticsView is what the API returns for a reader
type StatisticsView struct {
	UserStatistics
	LevelInfo              experience.LevelInfo `json:"level_info"`
	ReadingTimeToNextLevel int                  `json:"reading_time_to_next_level"`
	LastRead               string               `json:"last_read,omitempty"`
	TopAuthors             []RankedCount        `json:"top_authors"`
	TopGenres              []RankedCount        `json:"top_genres"`
}

type LeaderboardEntry struct {
	Rank        int                `json:"rank"`
	UserID      primitive.ObjectID `json:"user_id"`
	DisplayName string             `json:"display_name"`
	Level       int                `json:"level"`
	Experience  int                `json:"experience"`
}

// LevelUpEvent is published when a reader's stored level increases
type LevelUpEvent struct {
	UserID        string `json:"user_id"`
	EventType     string `json:"event_type"`
	Level         int    `json:"level"`
	PreviousLevel int    `json:"previous_level"`
}
