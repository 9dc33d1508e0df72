package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/experience"
	"reading-journal/internal/models"
	"reading-journal/internal/utils"
)

const (
	statsCacheTTL           = 30 * time.Second
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	topCountsLimit          = 5
	levelUpEventType        = "level_up"
)

// StatisticsService keeps the denormalized per-user statistics and level
type StatisticsService struct {
	stats    StatisticsRepository
	users    UserRepository
	books    BookRepository
	sessions SessionRepository
	social   SocialRepository
	cache    Cache
	events   EventPublisher
	metrics  *utils.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

func NewStatisticsService(
	stats StatisticsRepository,
	users UserRepository,
	books BookRepository,
	sessions SessionRepository,
	social SocialRepository,
	cache Cache,
	events EventPublisher,
	metrics *utils.Metrics,
	log *logrus.Entry,
) *StatisticsService {
	return &StatisticsService{
		stats:    stats,
		users:    users,
		books:    books,
		sessions: sessions,
		social:   social,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

func statsCacheKey(userID primitive.ObjectID) string {
	return fmt.Sprintf("user_stats:%s", userID.Hex())
}

// Apply increments the user's counters atomically and refreshes the stored level
func (s *StatisticsService) Apply(ctx context.Context, userID primitive.ObjectID, delta models.CounterDelta, lastSessionAt *time.Time) error {
	if delta.IsZero() && lastSessionAt == nil {
		return nil
	}

	stats, err := s.stats.Increment(ctx, userID, delta, lastSessionAt)
	if err != nil {
		return fmt.Errorf("increment statistics: %w", err)
	}

	_, err = s.applyLevel(ctx, stats)
	return err
}

// RefreshLevel recomputes the level from the stored counters
func (s *StatisticsService) RefreshLevel(ctx context.Context, userID primitive.ObjectID) (experience.LevelInfo, error) {
	stats, err := s.stats.Get(ctx, userID)
	if err != nil {
		return experience.LevelInfo{}, err
	}

	return s.applyLevel(ctx, stats)
}

func (s *StatisticsService) applyLevel(ctx context.Context, stats *models.UserStatistics) (experience.LevelInfo, error) {
	info := stats.LevelInfo()

	previous, err := s.stats.SetLevel(ctx, stats.UserID, info.Level, info.Experience)
	if err != nil {
		return info, fmt.Errorf("store level: %w", err)
	}
	s.invalidate(ctx, stats.UserID)

	if previous < 1 {
		previous = 1
	}
	if info.Level > previous {
		s.metrics.LevelUps.Inc()

		event := models.LevelUpEvent{
			UserID:        stats.UserID.Hex(),
			EventType:     levelUpEventType,
			Level:         info.Level,
			PreviousLevel: previous,
		}
		if err := s.events.Publish(ctx, EventsChannel, event); err != nil {
			s.log.WithError(err).WithField("user_id", event.UserID).Warn("failed to publish level up event")
		}
		s.log.WithFields(logrus.Fields{
			"user_id":        event.UserID,
			"level":          info.Level,
			"previous_level": previous,
		}).Info("reader leveled up")
	}

	return info, nil
}

func (s *StatisticsService) GetStatistics(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error) {
	cacheKey := statsCacheKey(userID)

	var cached models.StatisticsView
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.stats.Get(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		stats = &models.UserStatistics{UserID: userID, Level: 1}
	} else if err != nil {
		return nil, err
	}

	view := s.buildView(stats)
	if err := s.cache.Set(ctx, cacheKey, view, statsCacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache statistics")
	}

	return view, nil
}

func (s *StatisticsService) buildView(stats *models.UserStatistics) *models.StatisticsView {
	info := stats.LevelInfo()
	view := &models.StatisticsView{
		UserStatistics:         *stats,
		LevelInfo:              info,
		ReadingTimeToNextLevel: experience.ReadingTimeToNextLevel(info),
		TopAuthors:             models.TopCounts(stats.Authors, topCountsLimit),
		TopGenres:              models.TopCounts(stats.Genres, topCountsLimit),
	}
	if stats.LastSessionAt != nil {
		view.LastRead = humanize.RelTime(*stats.LastSessionAt, s.now(), "ago", "from now")
	}

	return view
}

// Rebuild recomputes every derived statistic from the user's books, sessions and social activity
func (s *StatisticsService) Rebuild(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error) {
	view, err := s.rebuild(ctx, userID)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.StatsRebuilds.WithLabelValues(result).Inc()

	return view, err
}

func (s *StatisticsService) rebuild(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error) {
	books, err := s.books.List(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	sessions, err := s.sessions.List(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	agg := BuildAggregate(books, sessions)

	if agg.TotalLikesReceived, err = s.social.CountLikesReceived(ctx, userID); err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	if agg.TotalCommentsWritten, err = s.social.CountCommentsWritten(ctx, userID); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	if err := s.stats.ReplaceAggregate(ctx, userID, agg); err != nil {
		return nil, fmt.Errorf("store aggregate: %w", err)
	}

	stats, err := s.stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyLevel(ctx, stats); err != nil {
		return nil, err
	}

	// re-read so the view carries the level just stored
	stats, err = s.stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.buildView(stats), nil
}

// RebuildAll rebuilds statistics for every user and returns how many succeeded
func (s *StatisticsService) RebuildAll(ctx context.Context) (int, error) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	rebuilt := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rebuilt, err
		}
		if _, err := s.Rebuild(ctx, id); err != nil {
			s.log.WithError(err).WithField("user_id", id.Hex()).Error("failed to rebuild statistics")
			continue
		}
		rebuilt++
	}

	return rebuilt, nil
}

func (s *StatisticsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit == 0 {
		limit = defaultLeaderboardLimit
	}
	if limit < 1 || limit > maxLeaderboardLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrValidation, maxLeaderboardLimit)
	}

	top, err := s.stats.Top(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(top))
	for i, st := range top {
		ids[i] = st.UserID
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(top))
	for i, st := range top {
		entries = append(entries, models.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      st.UserID,
			DisplayName: users[st.UserID].DisplayName,
			Level:       st.Level,
			Experience:  st.Experience,
		})
	}

	return entries, nil
}

func (s *StatisticsService) invalidate(ctx context.Context, userID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		s.log.WithError(err).Warn("failed to invalidate statistics cache")
	}
}

// BuildAggregate scans books and sessions into the derived statistics.
// Social totals are left at zero for the caller to fill in.
func BuildAggregate(books []models.Book, sessions []models.ReadingSession) models.Aggregate {
	agg := models.Aggregate{
		Authors:            map[string]int{},
		Genres:             map[string]int{},
		SessionsByWeekday:  map[string]int{},
		ReadingTimeByMonth: map[string]int{},
	}

	for _, b := range books {
		if b.Status == models.StatusFinished {
			agg.BooksFinished++
		}
		if author := mapKey(b.Author); author != "" {
			agg.Authors[author]++
		}
		if genre := mapKey(b.Genre); genre != "" {
			agg.Genres[genre]++
		}
	}

	for _, sess := range sessions {
		agg.SessionsCount++
		agg.TotalReadingTime += sess.DurationSeconds
		agg.TotalPagesRead += sess.PagesRead()

		started := sess.StartedAt.UTC()
		agg.SessionsByWeekday[started.Weekday().String()]++
		agg.ReadingTimeByMonth[started.Format("2006-01")] += sess.DurationSeconds

		if agg.LastSessionAt == nil || started.After(*agg.LastSessionAt) {
			t := started
			agg.LastSessionAt = &t
		}
	}

	return agg
}

// mapKey makes a display name safe to use as a document field name
func mapKey(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, ".", "")
	return strings.TrimLeft(name, "$")
}
