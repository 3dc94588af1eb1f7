package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

type fakeStatusReader struct {
	status *models.RunStatus
	err    error
}

func (f *fakeStatusReader) Get(context.Context) (*models.RunStatus, error) {
	return f.status, f.err
}

func newStatusHandlerAt(reader *fakeStatusReader, now time.Time) *StatusHandler {
	handler := NewStatusHandler(reader)
	handler.now = func() time.Time { return now }
	return handler
}

func TestStatusHandlerFreshRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	handler := newStatusHandlerAt(&fakeStatusReader{status: &models.RunStatus{
		LastRunAt:     now.Add(-2 * time.Hour).Format(time.RFC3339),
		LatestMessage: "3 inactive students, 1 assignments with missing submissions",
	}}, now)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/status", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "3 inactive students, 1 assignments with missing submissions", envelope.Data["message"])
}

func TestStatusHandlerStaleRunReturnsEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	handler := newStatusHandlerAt(&fakeStatusReader{status: &models.RunStatus{
		LastRunAt:     now.Add(-25 * time.Hour).Format(time.RFC3339),
		LatestMessage: "old news",
	}}, now)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/status", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data)
}

func TestStatusHandlerNoRunYet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	handler := newStatusHandlerAt(&fakeStatusReader{}, now)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/status", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data)
}

func TestStatusHandlerMalformedMarkerReadsAsEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	handler := newStatusHandlerAt(&fakeStatusReader{status: &models.RunStatus{
		LastRunAt: "yesterday-ish",
	}}, now)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/status", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data)
}
