// Package di wires the database, services and handlers together.
package di

import (
	"context"
	"database/sql"

	"readerapp/internal/config"
	"readerapp/internal/database"
	"readerapp/internal/handlers"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// Container holds every initialized dependency of the application.
type Container struct {
	Config *config.Config
	DB     *sql.DB
	Logger *observability.Logger

	UserService       *services.UserService
	SessionService    *services.SessionService
	FeedbackService   *services.FeedbackService
	StatsService      *services.StatsService
	ReaderService     *services.ReaderService
	AnnotationService *services.AnnotationService
	DictionaryService *services.DictionaryService

	Router *gin.Engine
}

// NewContainer connects to the database, runs migrations and constructs the
// full service graph and router.
func NewContainer(ctx context.Context, cfg *config.Config, logger *observability.Logger) (result0 *Container, err error) {
	if cfg == nil {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "config is required")
	}
	if logger == nil {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "logger is required")
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDB(cfg.Database.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to initialize database")
	}

	dictionaryService := services.NewDictionaryService(db, logger)
	if cfg.Dictionary.ExternalAPIURL != "" {
		dictionaryService = dictionaryService.WithExternalAPI(cfg.Dictionary.ExternalAPIURL, cfg.Dictionary.RequestTimeout)
	}

	c := &Container{
		Config: cfg,
		DB:     db,
		Logger: logger,

		UserService:       services.NewUserService(db, logger),
		SessionService:    services.NewSessionService(db, logger),
		FeedbackService:   services.NewFeedbackService(db, logger),
		StatsService:      services.NewStatsService(db, logger),
		ReaderService:     services.NewReaderService(db, logger),
		AnnotationService: services.NewAnnotationService(db, logger),
		DictionaryService: dictionaryService,
	}

	c.Router = handlers.NewRouter(cfg, handlers.RouterServices{
		User:       c.UserService,
		Session:    c.SessionService,
		Feedback:   c.FeedbackService,
		Stats:      c.StatsService,
		Reader:     c.ReaderService,
		Annotation: c.AnnotationService,
		Dictionary: c.DictionaryService,
	}, logger)

	return c, nil
}

// Close releases the container's resources.
func (c *Container) Close(ctx context.Context) {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn(ctx, "failed to close database", map[string]interface{}{"error": err.Error()})
		}
	}
}
