package service

import (
	"context"
	"fmt"
	"io"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
)

// Operation names reported to the OperationObserver.
const (
	OpReport   = "report"
	OpBackfill = "backfill"
	OpRemove   = "remove"
	OpExport   = "export"
)

// Outcome names reported to the OperationObserver.
const (
	OutcomeApplied  = "applied"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
	OutcomeRemoved  = "removed"
	OutcomeMissing  = "missing"
)

// StatusRepository defines the storage interface for status operations.
type StatusRepository interface {
	// Upsert overwrites the status and stamps the last update with now.
	Upsert(ctx context.Context, labels domain.LabelSet, status int) int64

	// Backfill seeds last-update values for label sets that have none.
	Backfill(ctx context.Context, entries []domain.BackfillEntry) domain.BackfillResult

	// Delete removes a label set from both maps.
	Delete(ctx context.Context, labels domain.LabelSet) bool

	// WriteTo writes the exposition body.
	WriteTo(w io.Writer) (int64, error)
}

// OperationObserver receives operation outcomes, typically for metrics.
type OperationObserver interface {
	ObserveOperation(op, outcome string, count int)
}

// BackfillInput is one unvalidated backfill item.
type BackfillInput struct {
	Node       string
	ISP        string
	LastUpdate int64
}

// StatusService validates requests and applies them to the registry.
type StatusService struct {
	repo     StatusRepository
	observer OperationObserver
}

// NewStatusService creates a new StatusService. observer may be nil.
func NewStatusService(repo StatusRepository, observer OperationObserver) *StatusService {
	return &StatusService{
		repo:     repo,
		observer: observer,
	}
}

// ReportStatus records the latest status of (node, isp) and returns the
// last-update timestamp written.
func (s *StatusService) ReportStatus(ctx context.Context, node, isp string, status int) (int64, error) {
	labels, err := domain.NewLabelSet(node, isp)
	if err != nil {
		s.observe(OpReport, OutcomeRejected, 1)
		return 0, err
	}

	ts := s.repo.Upsert(ctx, labels, status)
	s.observe(OpReport, OutcomeApplied, 1)

	logger.L(ctx).Debug("status reported",
		"labels", labels.Key(),
		"status", status,
		"lastupdate", ts)
	return ts, nil
}

// Backfill seeds last-update timestamps. The whole batch is validated before
// any entry is applied, so a rejected batch leaves the registry untouched.
func (s *StatusService) Backfill(ctx context.Context, items []BackfillInput) (domain.BackfillResult, error) {
	entries := make([]domain.BackfillEntry, 0, len(items))
	for i, item := range items {
		e, err := domain.NewBackfillEntry(item.Node, item.ISP, item.LastUpdate)
		if err != nil {
			s.observe(OpBackfill, OutcomeRejected, len(items))
			return domain.BackfillResult{}, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}

	res := s.repo.Backfill(ctx, entries)
	s.observe(OpBackfill, OutcomeApplied, res.Applied)
	s.observe(OpBackfill, OutcomeSkipped, res.Skipped)

	logger.L(ctx).Debug("backfill applied",
		"entries", len(entries),
		"applied", res.Applied,
		"skipped", res.Skipped)
	return res, nil
}

// Remove deletes (node, isp) from the registry. Removing an unknown label set
// is not an error.
func (s *StatusService) Remove(ctx context.Context, node, isp string) (bool, error) {
	labels, err := domain.NewLabelSet(node, isp)
	if err != nil {
		s.observe(OpRemove, OutcomeRejected, 1)
		return false, err
	}

	removed := s.repo.Delete(ctx, labels)
	if removed {
		s.observe(OpRemove, OutcomeRemoved, 1)
	} else {
		s.observe(OpRemove, OutcomeMissing, 1)
	}

	logger.L(ctx).Debug("status removed",
		"labels", labels.Key(),
		"existed", removed)
	return removed, nil
}

// Export writes the exposition body to w.
func (s *StatusService) Export(ctx context.Context, w io.Writer) error {
	if _, err := s.repo.WriteTo(w); err != nil {
		return fmt.Errorf("write exposition: %w", err)
	}
	s.observe(OpExport, OutcomeApplied, 1)
	return nil
}

func (s *StatusService) observe(op, outcome string, count int) {
	if s.observer == nil || count == 0 {
		return
	}
	s.observer.ObserveOperation(op, outcome, count)
}
