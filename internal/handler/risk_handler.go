package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepai-labs/compliance-monitor/internal/dto"
	"github.com/prepai-labs/compliance-monitor/internal/models"
	appErrors "github.com/prepai-labs/compliance-monitor/pkg/errors"
	"github.com/prepai-labs/compliance-monitor/pkg/response"
)

type riskSummarizer interface {
	Summary(ctx context.Context, scope []string) (*dto.RiskSummaryResponse, bool, error)
	ManagedScope(ctx context.Context, staffID string) ([]string, error)
	BatchDefaulters(ctx context.Context, batchID string) (*models.Batch, []models.InactiveSubject, error)
	InactivityThreshold() time.Duration
}

type defaultersReportBuilder interface {
	BuildBatchDefaultersReport(batch *models.Batch, inactive []models.InactiveSubject, threshold time.Duration) ([]byte, error)
}

// RiskHandler exposes the on-demand dashboard endpoints. These read the same
// aggregation the scheduled pipeline uses, with no guard and no dispatch.
type RiskHandler struct {
	risk    riskSummarizer
	reports defaultersReportBuilder
}

// NewRiskHandler constructs the risk handler.
func NewRiskHandler(risk riskSummarizer, reports defaultersReportBuilder) *RiskHandler {
	return &RiskHandler{risk: risk, reports: reports}
}

// Summary returns current inactive and missed-task counts. The scope comes
// from either an explicit batchIds list or the batches a staff member
// manages; with neither, all batches are evaluated.
func (h *RiskHandler) Summary(c *gin.Context) {
	if h.risk == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	scope, err := h.resolveScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	summary, cacheHit, err := h.risk.Summary(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, summary, meta)
}

// BatchDefaultersReport streams the per-batch inactivity listing as a PDF.
func (h *RiskHandler) BatchDefaultersReport(c *gin.Context) {
	if h.risk == nil || h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	batchID := strings.TrimSpace(c.Param("id"))
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batch id is required"))
		return
	}

	batch, inactive, err := h.risk.BatchDefaulters(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.BuildBatchDefaultersReport(batch, inactive, h.risk.InactivityThreshold())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="defaulters_`+batchID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report)
}

func (h *RiskHandler) resolveScope(c *gin.Context) ([]string, error) {
	if raw := strings.TrimSpace(c.Query("batchIds")); raw != "" {
		parts := strings.Split(raw, ",")
		scope := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				scope = append(scope, trimmed)
			}
		}
		if len(scope) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "batchIds must contain at least one id")
		}
		return scope, nil
	}

	if staffID := strings.TrimSpace(c.Query("staffId")); staffID != "" {
		scope, err := h.risk.ManagedScope(c.Request.Context(), staffID)
		if err != nil {
			return nil, err
		}
		if len(scope) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no batches assigned to staff member")
		}
		return scope, nil
	}

	return nil, nil
}
