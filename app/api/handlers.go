package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/iboxtv/app/database"
)

const (
	trendingLimit = 10
	maxFetchLimit = 100
)

func NewHandler(showRepo database.ShowRepository, ingester Ingester, generator GeneratorInterface, fetchLimit int) *Handler {
	return &Handler{
		showRepo:   showRepo,
		ingester:   ingester,
		generator:  generator,
		fetchLimit: fetchLimit,
	}
}

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to iBox TV API"})
}

func (h *Handler) FetchShows(c *gin.Context) {
	limit := h.fetchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxFetchLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxFetchLimit)})
			return
		}
		limit = parsed
	}

	result, err := h.ingester.Run(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Ingestion interrupted", "limit", limit, "inserted", result.InsertedCount, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion interrupted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Fetched and inserted %d new shows", result.InsertedCount),
		"shows":   result.InsertedTitles,
	})
}

func (h *Handler) ListShows(c *gin.Context) {
	shows, err := h.showRepo.ListAll(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_shows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, shows)
}

func (h *Handler) TrendingShows(c *gin.Context) {
	shows, err := h.showRepo.ListTopByPopularity(c.Request.Context(), trendingLimit)
	if err != nil {
		slog.Error("Database error", "operation", "list_trending", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, shows)
}

func (h *Handler) GetStreamStatus(c *gin.Context) {
	id := c.Param("id")

	show, err := h.showRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_show", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if show == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Show not found"})
		return
	}

	c.JSON(http.StatusOK, StreamStatus{
		Downloadable: show.DownloadLink != "",
		Streamable:   show.IsStreamable,
	})
}

func (h *Handler) GetShowsFeed(c *gin.Context) {
	shows, err := h.showRepo.ListAll(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_shows", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	// Newest first, as feed readers expect.
	newest := make([]database.Show, len(shows))
	for i, show := range shows {
		newest[len(shows)-1-i] = show
	}

	rss, err := h.generator.Run(newest)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(newest)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	count, err := h.showRepo.Count(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_shows", "error", err)
		health["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["shows"] = count

	c.JSON(http.StatusOK, health)
}
