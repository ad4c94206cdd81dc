package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/euacreations/streamvault/internal/database"
	"github.com/euacreations/streamvault/internal/models"
	"github.com/euacreations/streamvault/internal/services"
	"github.com/gin-gonic/gin"
)

type ingestPipeline interface {
	Process(ctx context.Context, sourcePath string, meta models.UploadMetadata) (*models.MediaAsset, error)
	Delete(ctx context.Context, id string) error
}

type catalog interface {
	Get(ctx context.Context, id string) (*models.MediaAsset, error)
	List(ctx context.Context, filters database.MediaFilters) ([]*models.MediaAsset, error)
}

type watchTracker interface {
	Record(ctx context.Context, mediaID string, userID int64, positionSeconds int, completed bool) (*models.WatchRecord, error)
	History(ctx context.Context, userID int64) ([]models.WatchHistoryEntry, error)
}

type analyticsRecorder interface {
	Record(ctx context.Context, eventType models.EventType, data services.EventData)
	PopularMedia(ctx context.Context, limit int) ([]models.PopularMedia, error)
	UserEngagement(ctx context.Context, userID int64) (*models.UserEngagement, error)
	PlaybackStats(ctx context.Context, days int) ([]models.PlaybackStat, error)
	SystemHealth(ctx context.Context) (*models.SystemHealth, error)
}

type eventSource interface {
	Subscribe() (<-chan models.PipelineEvent, func())
}

type Server struct {
	router    *gin.Engine
	pipeline  ingestPipeline
	catalog   catalog
	watches   watchTracker
	analytics analyticsRecorder
	events    eventSource
}

func NewServer(
	pipeline ingestPipeline,
	catalog catalog,
	watches watchTracker,
	analytics analyticsRecorder,
	events eventSource,
) *Server {
	router := gin.Default()
	s := &Server{
		router:    router,
		pipeline:  pipeline,
		catalog:   catalog,
		watches:   watches,
		analytics: analytics,
		events:    events,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		api.POST("/media", s.uploadMedia)
		api.GET("/media", s.listMedia)
		api.GET("/media/:id", s.getMedia)
		api.DELETE("/media/:id", s.deleteMedia)
		api.POST("/media/:id/watch-progress", s.recordWatchProgress)
		api.GET("/users/:userId/history", s.getWatchHistory)
		api.GET("/users/:userId/engagement", s.getUserEngagement)
		api.GET("/search", s.searchMedia)
		api.GET("/analytics/popular", s.getPopularMedia)
		api.GET("/analytics/stats", s.getPlaybackStats)
		api.GET("/system/health", s.getSystemHealth)
		api.GET("/events", s.streamEvents)
	}
}

func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

type uploadRequest struct {
	SourcePath  string   `json:"source_path" binding:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// uploadMedia ingests a file already staged on local storage. The request
// blocks until ingestion finishes; progress is observable on /events.
func (s *Server) uploadMedia(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDHeader(c)
	s.analytics.Record(c.Request.Context(), models.EventUploadStart, services.EventData{
		UserID:  userID,
		Payload: gin.H{"title": req.Title},
	})

	asset, err := s.pipeline.Process(c.Request.Context(), req.SourcePath, models.UploadMetadata{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		OwnerUserID: userID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (s *Server) listMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	media, err := s.catalog.List(c.Request.Context(), database.MediaFilters{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media": media,
		"pagination": gin.H{
			"current_page": page,
			"page_size":    pageSize,
			"count":        len(media),
		},
	})
}

func (s *Server) getMedia(c *gin.Context) {
	asset, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.analytics.Record(c.Request.Context(), models.EventPlay, services.EventData{
		MediaID:   asset.ID,
		UserID:    userIDHeader(c),
		SessionID: c.GetHeader("X-Session-ID"),
	})

	c.JSON(http.StatusOK, asset)
}

func (s *Server) deleteMedia(c *gin.Context) {
	id := c.Param("id")
	if err := s.pipeline.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	s.analytics.Record(c.Request.Context(), models.EventDelete, services.EventData{
		MediaID: id,
		UserID:  userIDHeader(c),
	})

	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}

type watchProgressRequest struct {
	PositionSeconds int  `json:"position"`
	Completed       bool `json:"completed"`
}

func (s *Server) recordWatchProgress(c *gin.Context) {
	var req watchProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDHeader(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
		return
	}

	record, err := s.watches.Record(c.Request.Context(), c.Param("id"), userID, req.PositionSeconds, req.Completed)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) getWatchHistory(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	history, err := s.watches.History(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) searchMedia(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	media, err := s.catalog.List(c.Request.Context(), database.MediaFilters{
		Search: query,
		Limit:  limit,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.analytics.Record(c.Request.Context(), models.EventSearch, services.EventData{
		UserID:  userIDHeader(c),
		Payload: gin.H{"query": query, "results": len(media)},
	})

	c.JSON(http.StatusOK, gin.H{"results": media})
}

func (s *Server) getPopularMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	popular, err := s.analytics.PopularMedia(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"popular": popular})
}

func (s *Server) getUserEngagement(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	engagement, err := s.analytics.UserEngagement(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, engagement)
}

func (s *Server) getPlaybackStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	stats, err := s.analytics.PlaybackStats(c.Request.Context(), days)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *Server) getSystemHealth(c *gin.Context) {
	health, err := s.analytics.SystemHealth(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, health)
}

// streamEvents serves the pipeline event feed as server-sent events. The
// stream ends when the client disconnects or the hub shuts down.
func (s *Server) streamEvents(c *gin.Context) {
	ch, cancel := s.events.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var serr *models.StoreError

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &serr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": serr.Error()})
	default:
		var perr *models.ProbeError
		var terr *models.TranscodeError
		if errors.As(err, &perr) || errors.As(err, &terr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func userIDHeader(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
