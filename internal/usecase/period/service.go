package period

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// Service governs the period lifecycle: OPEN -> CLOSING -> CLOSED, with
// CLOSING -> OPEN as cancel. Only these three persisted states exist; any
// transient "currently closing" view flag is a presentation concern.
type Service struct {
	Periods domain.PeriodRepository
}

// NewService creates a new period Service instance
func NewService(periods domain.PeriodRepository) *Service {
	return &Service{Periods: periods}
}

// EnsureOpen returns the period for year/month, creating it in OPEN state
// if it does not exist yet. Idempotent: a lost creation race falls back to
// the winner's row.
func (s *Service) EnsureOpen(ctx context.Context, year, month int) (*domain.Period, error) {
	p, err := s.Periods.GetByYearMonth(ctx, year, month)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPeriodNotFound) {
		return nil, fmt.Errorf("failed to look up period %04d-%02d: %w", year, month, err)
	}

	p = &domain.Period{
		ID:       uuid.New(),
		Year:     year,
		Month:    month,
		Status:   domain.PeriodStatusOpen,
		OpenedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.Periods.Create(ctx, p); err != nil {
		// Another writer may have created the same month concurrently.
		if existing, getErr := s.Periods.GetByYearMonth(ctx, year, month); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create period %04d-%02d: %w", year, month, err)
	}

	return p, nil
}

// StartClosing moves an OPEN period into the CLOSING staging state.
func (s *Service) StartClosing(ctx context.Context, periodID uuid.UUID) error {
	return s.transition(ctx, periodID, domain.PeriodStatusOpen, domain.PeriodStatusClosing, nil)
}

// CancelClosing returns a CLOSING period to OPEN with its movement set
// untouched.
func (s *Service) CancelClosing(ctx context.Context, periodID uuid.UUID) error {
	return s.transition(ctx, periodID, domain.PeriodStatusClosing, domain.PeriodStatusOpen, nil)
}

// ConfirmClose moves a CLOSING period to CLOSED and stamps closedAt. From
// then on every movement in the period is immutable; immutability is
// enforced by the ledger checking period status, not by copying data.
func (s *Service) ConfirmClose(ctx context.Context, periodID uuid.UUID) error {
	now := time.Now().UTC()
	return s.transition(ctx, periodID, domain.PeriodStatusClosing, domain.PeriodStatusClosed, &now)
}

func (s *Service) transition(ctx context.Context, periodID uuid.UUID, from, to domain.PeriodStatus, closedAt *time.Time) error {
	p, err := s.Periods.GetByID(ctx, periodID)
	if err != nil {
		return err
	}

	if p.Status != from || !from.CanTransitionTo(to) {
		if p.Status == domain.PeriodStatusClosed {
			return domain.ErrPeriodClosed
		}
		return fmt.Errorf("%w: %s -> %s", domain.ErrPeriodTransition, p.Status, to)
	}

	return s.Periods.UpdateStatus(ctx, periodID, from, to, closedAt)
}

// IsMutable reports whether movements in the period may still change.
// CLOSING still allows edits; only CLOSED is frozen.
func (s *Service) IsMutable(ctx context.Context, periodID uuid.UUID) (bool, error) {
	p, err := s.Periods.GetByID(ctx, periodID)
	if err != nil {
		return false, err
	}
	return p.IsMutable(), nil
}

// UnclosedBefore lists periods strictly before year/month that are not yet
// CLOSED, for the "you still have unclosed months" read model. The store
// already filters; the chronological check is re-applied here so a store
// that returns too much can never surface the current or a later month.
func (s *Service) UnclosedBefore(ctx context.Context, year, month int) ([]*domain.Period, error) {
	periods, err := s.Periods.ListUnclosedBefore(ctx, year, month)
	if err != nil {
		return nil, err
	}

	unclosed := make([]*domain.Period, 0, len(periods))
	for _, p := range periods {
		if p.Before(year, month) && p.Status != domain.PeriodStatusClosed {
			unclosed = append(unclosed, p)
		}
	}

	return unclosed, nil
}
