package api

import (
	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/docchat/internal/api/chat"
	"github.com/liliang-cn/docchat/internal/api/middleware"
	"github.com/liliang-cn/docchat/internal/api/pdfs"
	"github.com/liliang-cn/docchat/internal/service"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	responseService *service.ResponseService,
	pdfService *service.PDFService,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
			"services": gin.H{
				"chat": "operational",
				"pdfs": "operational",
			},
		})
	})

	// API information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":        "DocChat API",
			"version":     "1.0.0",
			"description": "Streaming chat with PDF citation viewer",
			"endpoints": gin.H{
				"chat_stream":  "POST /api/chat/stream",
				"list_pdfs":    "GET /api/pdfs",
				"get_pdf":      "GET /api/pdfs/:filename",
				"pdf_metadata": "GET /api/pdfs/:filename/metadata",
				"pdf_page":     "GET /api/pdfs/:filename/page/:page_number",
				"search_pdf":   "GET /api/pdfs/:filename/search?q=:query",
			},
		})
	})

	// Chat API
	chatHandler := chat.NewHandler(responseService)
	chatGroup := r.Group("/api/chat")
	chatHandler.RegisterRoutes(chatGroup)

	// PDF API
	pdfHandler := pdfs.NewHandler(pdfService)
	pdfGroup := r.Group("/api/pdfs")
	pdfHandler.RegisterRoutes(pdfGroup)

	return r
}
