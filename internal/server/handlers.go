package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/repository"
)

type processRequest struct {
	URL string `json:"url" binding:"required"`
}

// handleProcessReceipt runs the extraction pipeline for the posted URL and
// persists the result under the caller's API key.
func (s *Server) handleProcessReceipt(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a url field"})
		return
	}

	ctx := c.Request.Context()
	receipt, err := s.processor.Process(ctx, req.URL)
	if err != nil {
		s.renderError(c, err)
		return
	}

	stored, err := s.repo.Save(ctx, callerKey(c), receipt)
	if err != nil {
		s.logger.Error("server.save_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store receipt"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      stored.ID,
		"receipt": receipt,
	})
}

func (s *Server) handleGetReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return
	}

	rec, err := s.repo.GetByID(c.Request.Context(), callerKey(c), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
			return
		}
		s.logger.Error("server.get_failed", "receipt_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load receipt"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListReceipts(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := s.repo.ListByAPIKey(c.Request.Context(), callerKey(c), limit)
	if err != nil {
		s.logger.Error("server.list_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list receipts"})
		return
	}
	if recs == nil {
		recs = []entity.Receipt{}
	}
	c.JSON(http.StatusOK, gin.H{"receipts": recs, "count": len(recs)})
}

// handleExport streams the caller's receipts as an XLSX workbook. The optional
// from/to query parameters are dates in 2006-01-02 form.
func (s *Server) handleExport(c *gin.Context) {
	from, err := dateParam(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := dateParam(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.exporter.ExportReceiptsXLSX(c.Request.Context(), callerKey(c), from, to)
	if err != nil {
		s.logger.Error("server.export_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("receipts-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

func dateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in 2006-01-02 form", name)
	}
	return &t, nil
}

// renderError maps pipeline failure kinds onto HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case common.KindInvalidURL:
		status = http.StatusBadRequest
	case common.KindFetchTimeout:
		status = http.StatusGatewayTimeout
	case common.KindFetchUnavailable:
		status = http.StatusBadGateway
	case common.KindStructural, common.KindUnparseableRow:
		status = http.StatusUnprocessableEntity
	}

	var ee *common.ExtractionError
	detail := err.Error()
	if errors.As(err, &ee) {
		detail = ee.Detail
	}
	c.JSON(status, gin.H{"error": detail, "kind": string(kind)})
}
