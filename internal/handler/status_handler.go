package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepai-labs/compliance-monitor/internal/dto"
	"github.com/prepai-labs/compliance-monitor/internal/models"
	appErrors "github.com/prepai-labs/compliance-monitor/pkg/errors"
	"github.com/prepai-labs/compliance-monitor/pkg/response"
)

type statusReader interface {
	Get(ctx context.Context) (*models.RunStatus, error)
}

// freshnessWindow bounds how old a run marker may be and still count as a
// current notification for the dashboard banner.
const freshnessWindow = 24 * time.Hour

// StatusHandler serves the notification status poll used by the staff
// dashboard banner.
type StatusHandler struct {
	status statusReader
	now    func() time.Time
}

// NewStatusHandler constructs the status handler.
func NewStatusHandler(status statusReader) *StatusHandler {
	return &StatusHandler{status: status, now: time.Now}
}

// Latest returns the most recent run message when it falls inside the
// freshness window, and an empty payload otherwise. A stale or malformed
// marker is indistinguishable from "no recent alert" to the caller.
func (h *StatusHandler) Latest(c *gin.Context) {
	if h.status == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	status, err := h.status.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if status == nil || status.LastRunAt == "" {
		response.JSON(c, http.StatusOK, nil)
		return
	}

	lastRun, err := time.Parse(time.RFC3339, status.LastRunAt)
	if err != nil {
		response.JSON(c, http.StatusOK, nil)
		return
	}
	if h.now().UTC().Sub(lastRun.UTC()) > freshnessWindow {
		response.JSON(c, http.StatusOK, nil)
		return
	}

	response.JSON(c, http.StatusOK, dto.NotificationStatusResponse{
		Message:   status.LatestMessage,
		LastRunAt: lastRun.UTC(),
	})
}
