package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. CORS is only
// enabled when allowedOrigins is non-empty.
func New(handler *handlers.DashboardHandler, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}))
	}
	r.MaxMultipartMemory = 8 << 20
	r.SetHTMLTemplate(handlers.NewPageTemplate())

	r.GET("/", handler.Index)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.POST("/datasets/:kind", handler.UploadDataset)
	api.GET("/datasets/:kind/preview", handler.Preview)
	api.GET("/kpis", handler.KPIs)
	api.GET("/recommendations", handler.Recommendations)
	api.GET("/report.md", handler.Report)
	api.GET("/evaluations", handler.Evaluations)
	api.POST("/evaluations", handler.RecordEvaluation)
	api.POST("/digest", handler.SendDigest)
	api.POST("/sync", handler.SyncSheets)
	api.POST("/send-message", handler.SendMessage)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
