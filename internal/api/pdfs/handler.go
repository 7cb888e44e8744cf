package pdfs

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/docchat/internal/domain"
	"github.com/liliang-cn/docchat/internal/service"
)

// Handler handles PDF API requests
type Handler struct {
	pdfs *service.PDFService
}

// NewHandler creates a new PDF handler
func NewHandler(pdfs *service.PDFService) *Handler {
	return &Handler{pdfs: pdfs}
}

// RegisterRoutes registers PDF routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:filename", h.Get)
	r.GET("/:filename/metadata", h.Metadata)
	r.GET("/:filename/page/:page_number", h.Page)
	r.GET("/:filename/search", h.Search)
}

// List returns metadata for every available PDF. Files whose metadata cannot
// be read are skipped.
func (h *Handler) List(c *gin.Context) {
	filenames, err := h.pdfs.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]*domain.PDFMetadata, 0, len(filenames))
	for _, name := range filenames {
		meta, err := h.pdfs.Metadata(name)
		if err != nil {
			continue
		}
		result = append(result, meta)
	}

	c.JSON(http.StatusOK, result)
}

// Get serves the raw PDF file for inline display
func (h *Handler) Get(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.pdfs.Resolve(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("PDF file '%s' not found", filename)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filepath.Base(filename)))
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// Metadata returns metadata for a single PDF
func (h *Handler) Metadata(c *gin.Context) {
	filename := c.Param("filename")

	meta, err := h.pdfs.Metadata(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("PDF file '%s' not found", filename)})
		return
	}

	c.JSON(http.StatusOK, meta)
}

// Page returns the extracted text of one page
func (h *Handler) Page(c *gin.Context) {
	filename := c.Param("filename")

	page, err := strconv.Atoi(c.Param("page_number"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page number must be at least 1"})
		return
	}

	content, err := h.pdfs.PageContent(filename, page)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Page %d not found in '%s'", page, filename)})
		return
	}

	c.JSON(http.StatusOK, content)
}

// Search searches for a substring within a PDF
func (h *Handler) Search(c *gin.Context) {
	filename := c.Param("filename")

	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query cannot be empty"})
		return
	}

	if _, err := h.pdfs.Resolve(filename); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("PDF file '%s' not found", filename)})
		return
	}

	results, err := h.pdfs.Search(filename, q)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("PDF file '%s' not found", filename)})
		return
	}

	c.JSON(http.StatusOK, domain.SearchResponse{
		Query:    q,
		Filename: filename,
		Results:  results,
		Total:    len(results),
	})
}
