package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prepai-labs/compliance-monitor/internal/dto"
	"github.com/prepai-labs/compliance-monitor/internal/models"
	"github.com/prepai-labs/compliance-monitor/pkg/config"
)

type subjectReader interface {
	ListStudents(ctx context.Context, batchIDs []string) ([]models.Subject, error)
	ListInactiveStudents(ctx context.Context, batchIDs []string, cutoff string) ([]models.Subject, error)
}

type workItemReader interface {
	ListDeadlineCandidates(ctx context.Context, batchIDs []string, latestDeadline string) ([]models.WorkItem, error)
	ListSubmittedSubjectIDs(ctx context.Context, workItemID string) (map[string]struct{}, error)
}

type batchReader interface {
	GetByID(ctx context.Context, id string) (*models.Batch, error)
	ListManagedBatchIDs(ctx context.Context, staffID string) ([]string, error)
}

// RiskService computes the inactivity and missed-deadline risk signals.
// It holds no state between calls: every aggregation re-reads the store.
type RiskService struct {
	users      subjectReader
	workItems  workItemReader
	batches    batchReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.EngineConfig
	summaryTTL time.Duration
	now        func() time.Time
}

// RiskServiceParams groups constructor dependencies.
type RiskServiceParams struct {
	Users      subjectReader
	WorkItems  workItemReader
	Batches    batchReader
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     config.EngineConfig
	SummaryTTL time.Duration
}

// NewRiskService constructs a RiskService with sane defaults.
func NewRiskService(params RiskServiceParams) *RiskService {
	cfg := params.Config
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = 7 * 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.SummaryTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RiskService{
		users:      params.Users,
		workItems:  params.WorkItems,
		batches:    params.Batches,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		cfg:        cfg,
		summaryTTL: ttl,
		now:        time.Now,
	}
}

// ComputeRisk evaluates both risk signals for the given batch scope. A nil
// or empty scope means all batches. The result is a pure function of store
// state and the supplied clock.
func (s *RiskService) ComputeRisk(ctx context.Context, scope []string, threshold time.Duration, now time.Time) (models.RiskResult, error) {
	started := time.Now()
	now = now.UTC()
	if threshold <= 0 {
		threshold = s.cfg.InactivityThreshold
	}
	cutoff := now.Add(-threshold)

	students, err := s.users.ListStudents(ctx, scope)
	if err != nil {
		return models.RiskResult{}, fmt.Errorf("load students: %w", err)
	}

	inactive := s.collectInactive(ctx, scope, students, cutoff)

	missed, err := s.collectMissed(ctx, scope, students, now)
	if err != nil {
		return models.RiskResult{}, err
	}

	s.metrics.ObserveRiskCompute(time.Since(started))
	return models.RiskResult{Inactive: inactive, Missed: missed}, nil
}

// collectInactive prefers the store-side inactivity filter and degrades to
// the full candidate set when that query form is unavailable. The same
// predicate runs over either candidate set, so both paths yield identical
// results; the fallback only costs more rows scanned.
func (s *RiskService) collectInactive(ctx context.Context, scope []string, students []models.Subject, cutoff time.Time) []models.InactiveSubject {
	candidates, err := s.users.ListInactiveStudents(ctx, scope, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("inactivity query degraded, filtering in memory", zap.Error(err))
		candidates = students
	}

	inactive := make([]models.InactiveSubject, 0, len(candidates))
	for _, subj := range candidates {
		lastActive, isInactive, ok := evaluateActivity(subj, cutoff)
		if !ok {
			s.logger.Warn("skipping subject with malformed last_active",
				zap.String("subject_id", subj.ID),
				zap.Stringp("last_active", subj.LastActive),
			)
			continue
		}
		if !isInactive {
			continue
		}
		inactive = append(inactive, models.InactiveSubject{
			ID:         subj.ID,
			FullName:   subj.FullName,
			Email:      subj.Email,
			BatchID:    subj.BatchID,
			LastActive: lastActive,
		})
	}
	return inactive
}

func (s *RiskService) collectMissed(ctx context.Context, scope []string, students []models.Subject, now time.Time) ([]models.MissedWorkItem, error) {
	items, err := s.workItems.ListDeadlineCandidates(ctx, scope, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("load deadline candidates: %w", err)
	}

	byBatch := make(map[string][]models.Subject)
	for _, subj := range students {
		byBatch[subj.BatchID] = append(byBatch[subj.BatchID], subj)
	}

	missed := make([]models.MissedWorkItem, 0, len(items))
	for _, item := range items {
		deadline, ok := parseDeadline(item.Deadline)
		if !ok {
			s.logger.Warn("skipping work item with malformed deadline",
				zap.String("work_item_id", item.ID),
				zap.String("deadline", item.Deadline),
			)
			continue
		}
		if !deadline.Before(now) {
			continue
		}

		batchStudents := byBatch[item.BatchID]
		if len(batchStudents) == 0 {
			continue
		}

		submitted, err := s.workItems.ListSubmittedSubjectIDs(ctx, item.ID)
		if err != nil {
			// One unreadable submission set must not blank the whole report.
			s.logger.Warn("skipping work item, submissions unavailable",
				zap.String("work_item_id", item.ID),
				zap.Error(err),
			)
			continue
		}

		defaulters := make([]models.Defaulter, 0, len(batchStudents))
		for _, subj := range batchStudents {
			if _, ok := submitted[subj.ID]; ok {
				continue
			}
			defaulters = append(defaulters, models.Defaulter{ID: subj.ID, FullName: subj.FullName})
		}
		if len(defaulters) == 0 {
			continue
		}
		missed = append(missed, models.MissedWorkItem{
			WorkItemID: item.ID,
			Title:      item.Title,
			Deadline:   deadline,
			BatchID:    item.BatchID,
			Defaulters: defaulters,
		})
	}
	return missed, nil
}

// Summary serves the on-demand dashboard view: the same aggregation,
// caller-scoped, cached briefly, with no guard or dispatch involvement.
func (s *RiskService) Summary(ctx context.Context, scope []string) (*dto.RiskSummaryResponse, bool, error) {
	key := summaryCacheKey(scope)
	if s.cache != nil {
		var cached dto.RiskSummaryResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	now := s.now().UTC()
	result, err := s.ComputeRisk(ctx, scope, s.cfg.InactivityThreshold, now)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.RiskSummaryResponse{
		InactiveCount:   len(result.Inactive),
		MissedTaskCount: len(result.Missed),
		PerBatch:        perBatchBreakdown(result),
		GeneratedAt:     now,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.summaryTTL); err != nil {
			s.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, false, nil
}

// ManagedScope resolves a staff member's batch scope for dashboard calls.
func (s *RiskService) ManagedScope(ctx context.Context, staffID string) ([]string, error) {
	return s.batches.ListManagedBatchIDs(ctx, staffID)
}

// BatchDefaulters returns the batch record and its inactive students for the
// per-batch defaulters report.
func (s *RiskService) BatchDefaulters(ctx context.Context, batchID string) (*models.Batch, []models.InactiveSubject, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.ComputeRisk(ctx, []string{batchID}, s.cfg.InactivityThreshold, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	return batch, result.Inactive, nil
}

// InactivityThreshold exposes the configured threshold for report labelling.
func (s *RiskService) InactivityThreshold() time.Duration {
	return s.cfg.InactivityThreshold
}

// evaluateActivity applies the inactivity predicate to one subject. The
// boundary is inclusive: exactly threshold-old activity counts as inactive.
// ok is false when last_active is present but unparseable.
func evaluateActivity(subj models.Subject, cutoff time.Time) (lastActive *time.Time, inactive bool, ok bool) {
	if subj.LastActive == nil || *subj.LastActive == "" {
		return nil, true, true
	}
	t, err := time.Parse(time.RFC3339, *subj.LastActive)
	if err != nil {
		return nil, false, false
	}
	t = t.UTC()
	return &t, !t.After(cutoff), true
}

func parseDeadline(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func perBatchBreakdown(result models.RiskResult) []dto.BatchRiskBreakdown {
	inactiveByBatch := make(map[string]int)
	for _, subj := range result.Inactive {
		inactiveByBatch[subj.BatchID]++
	}
	missedByBatch := make(map[string]int)
	for _, item := range result.Missed {
		missedByBatch[item.BatchID]++
	}

	ids := make(map[string]struct{}, len(inactiveByBatch)+len(missedByBatch))
	for id := range inactiveByBatch {
		ids[id] = struct{}{}
	}
	for id := range missedByBatch {
		ids[id] = struct{}{}
	}

	breakdown := make([]dto.BatchRiskBreakdown, 0, len(ids))
	for id := range ids {
		breakdown = append(breakdown, dto.BatchRiskBreakdown{
			BatchID:         id,
			InactiveCount:   inactiveByBatch[id],
			MissedTaskCount: missedByBatch[id],
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].BatchID < breakdown[j].BatchID
	})
	return breakdown
}

func summaryCacheKey(scope []string) string {
	if len(scope) == 0 {
		return "risk:summary:all"
	}
	sorted := append([]string(nil), scope...)
	sort.Strings(sorted)
	return "risk:summary:" + strings.Join(sorted, ",")
}
