package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/tcmreview/internal/api/handlers"
	"github.com/your-org/tcmreview/internal/api/ws"
)

type RouterConfig struct {
	Review   handlers.ReviewService
	Catalog  handlers.Catalog
	Feedback handlers.FeedbackService
	Hub      *ws.Hub
	// Checks are pinged by /readyz, keyed by dependency name.
	Checks map[string]handlers.Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Hub != nil {
		r.GET("/ws", cfg.Hub.HandleWS)
	}

	// Review lifecycle
	reviewH := handlers.NewReviewHandler(cfg.Review, cfg.Catalog)
	r.GET("/upload", reviewH.Catalog)
	r.POST("/upload", reviewH.Upload)
	r.GET("/review", reviewH.Pending)
	r.POST("/review", reviewH.Decide)
	r.GET("/history", reviewH.History)

	// Feedback lifecycle
	feedbackH := handlers.NewFeedbackHandler(cfg.Feedback)
	r.POST("/ai_respond", feedbackH.Predict)
	r.GET("/ai_respond", feedbackH.Labels)
	r.POST("/ai_respond_judge", feedbackH.Judge)

	return r
}
