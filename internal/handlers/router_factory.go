package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"readerapp/internal/config"
	"readerapp/internal/middleware"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	"readerapp/internal/version"
)

// RouterServices bundles everything the router needs.
type RouterServices struct {
	User       *services.UserService
	Session    *services.SessionService
	Feedback   *services.FeedbackService
	Stats      *services.StatsService
	Reader     *services.ReaderService
	Annotation *services.AnnotationService
	Dictionary *services.DictionaryService
}

// NewRouter builds the gin engine with all middleware and routes attached.
func NewRouter(cfg *config.Config, svc RouterServices, logger *observability.Logger) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.GinMiddlewareWithErrorHandling("reader-app"))
	router.Use(requestLogger(logger))
	router.Use(secure.New(secure.Config{
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: config.DefaultCSP,
	}))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", config.UserIDHeader)
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": version.Version,
		})
	})

	feedbackHandler := NewFeedbackHandler(svc.Feedback, svc.Stats, logger)
	readerHandler := NewReaderHandler(svc.Reader, svc.Annotation, svc.Dictionary, logger)

	feedback := router.Group("/api/v1/feedback")
	feedback.Use(middleware.RequireUserHeader(svc.User, logger))
	{
		feedback.POST("", feedbackHandler.CreateFeedback)
		feedback.GET("", feedbackHandler.ListFeedback)
		feedback.GET("/search", feedbackHandler.SearchFeedback)
		feedback.GET("/statistics", feedbackHandler.GetStatistics)
		feedback.GET("/export", feedbackHandler.ExportFeedback)
		feedback.GET("/categories", feedbackHandler.ListCategories)
		feedback.POST("/categories", feedbackHandler.CreateCategory)
		feedback.PUT("/categories/:id", feedbackHandler.UpdateCategory)
		feedback.DELETE("/categories/:id", feedbackHandler.DeleteCategory)
		feedback.POST("/batch", feedbackHandler.BatchAction)
		feedback.PUT("/replies/:id", feedbackHandler.UpdateReply)
		feedback.DELETE("/replies/:id", feedbackHandler.DeleteReply)
		feedback.GET("/:id", feedbackHandler.GetFeedback)
		feedback.PUT("/:id", feedbackHandler.UpdateFeedback)
		feedback.DELETE("/:id", feedbackHandler.DeleteFeedback)
		feedback.PUT("/:id/status", feedbackHandler.UpdateStatus)
		feedback.POST("/:id/vote", feedbackHandler.VoteFeedback)
		feedback.GET("/:id/replies", feedbackHandler.ListReplies)
		feedback.POST("/:id/replies", feedbackHandler.CreateReply)
	}

	reader := router.Group("/api/v1/reader")
	reader.Use(middleware.RequireBearerSession(svc.Session, svc.User, logger))
	{
		reader.GET("/documents", readerHandler.ListDocuments)
		reader.GET("/documents/:id", readerHandler.GetDocument)
		reader.GET("/documents/:id/pages/:page", readerHandler.GetPage)
		reader.PUT("/documents/:id/progress", readerHandler.UpdateProgress)
		reader.GET("/documents/:id/search", readerHandler.SearchDocument)
		reader.GET("/documents/:id/highlights", readerHandler.ListHighlights)
		reader.POST("/documents/:id/highlights", readerHandler.CreateHighlight)
		reader.GET("/documents/:id/notes", readerHandler.ListNotes)
		reader.POST("/documents/:id/notes", readerHandler.CreateNote)
		reader.GET("/documents/:id/bookmarks", readerHandler.ListBookmarks)
		reader.POST("/documents/:id/bookmarks", readerHandler.CreateBookmark)
		reader.PUT("/highlights/:id", readerHandler.UpdateHighlight)
		reader.DELETE("/highlights/:id", readerHandler.DeleteHighlight)
		reader.PUT("/notes/:id", readerHandler.UpdateNote)
		reader.DELETE("/notes/:id", readerHandler.DeleteNote)
		reader.DELETE("/bookmarks/:id", readerHandler.DeleteBookmark)
		reader.GET("/history", readerHandler.ListHistory)
		reader.GET("/stats/daily", readerHandler.GetDailyStats)
		reader.GET("/dictionary/:word", readerHandler.LookupWord)
	}

	return router
}

// requestLogger logs each request with structured fields after completion.
func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		if userID, ok := CurrentUserID(c); ok {
			fields["user_id"] = userID
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "request failed", nil, fields)
			return
		}
		logger.Info(c.Request.Context(), "request completed", fields)
	}
}
