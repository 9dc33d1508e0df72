package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/experience"
	"reading-journal/internal/models"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error)
	Rebuild(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error)
	RebuildAll(ctx context.Context) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type StatsHandler struct {
	statsService StatisticsService
}

func NewStatsHandler(statsService StatisticsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	view, err := h.statsService.GetStatistics(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StatsHandler) RebuildMe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	view, err := h.statsService.Rebuild(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StatsHandler) RebuildAll(c *gin.Context) {
	count, err := h.statsService.RebuildAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rebuilt": count})
}

func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	entries, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Level previews the level for an arbitrary amount of reading and bonus experience
func (h *StatsHandler) Level(c *gin.Context) {
	readingTime, ok := intQuery(c, "reading_time")
	if !ok {
		return
	}
	bonus, ok := intQuery(c, "bonus")
	if !ok {
		return
	}

	info := experience.ComputeLevelInfo(readingTime, bonus)
	c.JSON(http.StatusOK, gin.H{
		"level_info":                 info,
		"reading_time_to_next_level": experience.ReadingTimeToNextLevel(info),
	})
}

// intQuery treats a missing parameter as zero
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}
