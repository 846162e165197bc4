package domain

import (
	"time"

	"github.com/google/uuid"
)

// PeriodStatus represents the lifecycle state of a calendar month
type PeriodStatus string

const (
	PeriodStatusOpen    PeriodStatus = "OPEN"
	PeriodStatusClosing PeriodStatus = "CLOSING"
	PeriodStatusClosed  PeriodStatus = "CLOSED"
)

// CanTransitionTo reports whether the status may move to target.
// Transitions are monotonic: OPEN -> CLOSING -> CLOSED, with
// CLOSING -> OPEN as the only way back (cancel). CLOSED is terminal.
func (s PeriodStatus) CanTransitionTo(target PeriodStatus) bool {
	switch s {
	case PeriodStatusOpen:
		return target == PeriodStatusClosing
	case PeriodStatusClosing:
		return target == PeriodStatusOpen || target == PeriodStatusClosed
	default:
		return false
	}
}

// Period represents one calendar month's ledger container. Periods are
// created lazily in OPEN state the first time a movement references them.
type Period struct {
	ID       uuid.UUID
	Year     int
	Month    int // 1-12
	Status   PeriodStatus
	OpenedAt time.Time
	ClosedAt *time.Time
}

// IsMutable reports whether movements in this period may still change.
// CLOSING still allows edits before final confirmation; only CLOSED freezes.
func (p *Period) IsMutable() bool {
	return p.Status == PeriodStatusOpen || p.Status == PeriodStatusClosing
}

// Before reports whether the period precedes the given year/month.
func (p *Period) Before(year, month int) bool {
	if p.Year != year {
		return p.Year < year
	}
	return p.Month < month
}

// Validate ensures the period adheres to domain rules
func (p *Period) Validate() error {
	if p.Year < 2000 {
		return NewValidationError("year", "must be 2000 or later")
	}

	if p.Month < 1 || p.Month > 12 {
		return NewValidationError("month", "must be between 1 and 12")
	}

	switch p.Status {
	case PeriodStatusOpen, PeriodStatusClosing, PeriodStatusClosed:
	default:
		return NewValidationError("status", "must be OPEN, CLOSING or CLOSED")
	}

	if p.Status == PeriodStatusClosed && p.ClosedAt == nil {
		return NewValidationError("closedAt", "is required for a CLOSED period")
	}

	return nil
}
