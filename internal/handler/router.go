package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"reading-journal/internal/models"
	"reading-journal/internal/utils"
)

// RouterConfig carries everything the public API needs
type RouterConfig struct {
	Auth        *AuthHandler
	Books       *BookHandler
	Sessions    *SessionHandler
	Notes       *NoteHandler
	Stats       *StatsHandler
	JWT         *utils.JWTUtil
	Blacklist   utils.TokenBlacklist
	Metrics     *utils.Metrics
	CORSOrigins []string
	Log         *logrus.Entry
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	api := router.Group("/api")
	api.GET("/level", cfg.Stats.Level)

	auth := api.Group("/auth")
	{
		auth.POST("/register", cfg.Auth.Register)
		auth.POST("/login", cfg.Auth.Login)
		auth.POST("/reset-password", cfg.Auth.ResetPassword)
	}

	authed := api.Group("/")
	authed.Use(utils.AuthMiddleware(cfg.JWT, cfg.Blacklist))
	authed.POST("/auth/logout", cfg.Auth.Logout)
	authed.PUT("/auth/set-initial-password", cfg.Auth.SetInitialPassword)

	protected := authed.Group("/")
	protected.Use(utils.RequirePasswordSet())
	{
		protected.GET("/auth/profile", cfg.Auth.GetProfile)
		protected.PUT("/auth/profile", cfg.Auth.UpdateProfile)
		protected.PUT("/auth/change-password", cfg.Auth.ChangePassword)

		protected.GET("/books", cfg.Books.List)
		protected.POST("/books", cfg.Books.Create)
		protected.GET("/books/:id", cfg.Books.Get)
		protected.PUT("/books/:id", cfg.Books.Update)
		protected.DELETE("/books/:id", cfg.Books.Delete)
		protected.POST("/books/:id/cover", cfg.Books.UploadCover)

		protected.GET("/sessions", cfg.Sessions.ListSessions)
		protected.POST("/sessions", cfg.Sessions.LogSession)
		protected.DELETE("/sessions/:id", cfg.Sessions.DeleteSession)

		protected.GET("/notes", cfg.Notes.List)
		protected.POST("/notes", cfg.Notes.Create)
		protected.GET("/notes/:id", cfg.Notes.Get)
		protected.PUT("/notes/:id", cfg.Notes.Update)
		protected.DELETE("/notes/:id", cfg.Notes.Delete)
		protected.POST("/notes/:id/like", cfg.Notes.Like)
		protected.DELETE("/notes/:id/like", cfg.Notes.Unlike)
		protected.GET("/notes/:id/comments", cfg.Notes.ListComments)
		protected.POST("/notes/:id/comments", cfg.Notes.Comment)
		protected.DELETE("/comments/:id", cfg.Notes.DeleteComment)
		protected.GET("/feed", cfg.Notes.Feed)

		protected.GET("/stats/me", cfg.Stats.Me)
		protected.POST("/stats/me/rebuild", cfg.Stats.RebuildMe)
		protected.GET("/stats/leaderboard", cfg.Stats.Leaderboard)

		admin := protected.Group("/admin")
		admin.Use(utils.RequireRoles(string(models.RoleAdmin)))
		{
			admin.POST("/stats/rebuild", cfg.Stats.RebuildAll)
		}
	}

	return router
}
