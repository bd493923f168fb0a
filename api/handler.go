package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wildberries-scraper/models"
	"wildberries-scraper/services"
	"wildberries-scraper/storage"
	"wildberries-scraper/utils"
)

// JobStarter starts and reports background parsing jobs.
type JobStarter interface {
	Start(categoryURL string) string
	Get(id string) (services.Job, error)
}

type Handler struct {
	Store    storage.ProductReader
	Jobs     JobStarter
	Insights *services.InsightService
	Logger   *utils.Logger
}

func NewHandler(store storage.ProductReader, jobs JobStarter, logger *utils.Logger) *Handler {
	return &Handler{
		Store:    store,
		Jobs:     jobs,
		Insights: services.NewInsightService(logger),
		Logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.list)                        // GET /api/products/
	rg.POST("/start-parsing/", h.startParsing) // POST /api/products/start-parsing/
	rg.GET("/tasks/:id", h.taskStatus)         // GET /api/products/tasks/:id
	rg.GET("/insights/", h.insights)           // GET /api/products/insights/
}

type listQuery struct {
	MinPrice        *int     `form:"min_price"`
	MinRating       *float64 `form:"min_rating"`
	MinReviewsCount *int     `form:"min_reviews_count"`
	Ordering        string   `form:"ordering"`
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
		return
	}
	if !storage.ValidOrdering(q.Ordering) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ordering: " + q.Ordering})
		return
	}

	products, err := h.Store.List(c.Request.Context(), models.ProductFilter{
		MinPrice:        q.MinPrice,
		MinRating:       q.MinRating,
		MinReviewsCount: q.MinReviewsCount,
		Ordering:        q.Ordering,
	})
	if err != nil {
		h.Logger.Error("[api] list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	out := make([]models.ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, p.Summary())
	}
	c.JSON(http.StatusOK, out)
}

type startParsingRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (h *Handler) startParsing(c *gin.Context) {
	var req startParsingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid category url is required"})
		return
	}

	id := h.Jobs.Start(req.URL)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Parsing task has been started.",
		"task_id": id,
	})
}

func (h *Handler) taskStatus(c *gin.Context) {
	job, err := h.Jobs.Get(c.Param("id"))
	if errors.Is(err, services.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "task lookup failed"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) insights(c *gin.Context) {
	products, err := h.Store.FetchAll(c.Request.Context())
	if err != nil {
		h.Logger.Error("[api] fetch products for insights: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insights failed"})
		return
	}
	c.JSON(http.StatusOK, h.Insights.Generate(products))
}

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
