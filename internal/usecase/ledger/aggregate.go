package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// NatureBreakdown holds USD totals and their percentages grouped by the
// nature the movements snapshotted at creation.
type NatureBreakdown struct {
	Fixed         decimal.Decimal
	Variable      decimal.Decimal
	Extraordinary decimal.Decimal

	FixedPct         decimal.Decimal
	VariablePct      decimal.Decimal
	ExtraordinaryPct decimal.Decimal
}

// Total returns the sum over the three natures.
func (b NatureBreakdown) Total() decimal.Decimal {
	return b.Fixed.Add(b.Variable).Add(b.Extraordinary)
}

// AggregateByCategory groups the base USD amounts of the given movements by
// nature. Percentages are relative to the total of the movements passed in.
func AggregateByCategory(movements []*domain.Movement) NatureBreakdown {
	b := NatureBreakdown{
		Fixed:         decimal.Zero,
		Variable:      decimal.Zero,
		Extraordinary: decimal.Zero,
	}

	for _, m := range movements {
		switch m.Nature {
		case domain.NatureFixed:
			b.Fixed = b.Fixed.Add(m.AmountBaseUSD)
		case domain.NatureVariable:
			b.Variable = b.Variable.Add(m.AmountBaseUSD)
		case domain.NatureExtraordinary:
			b.Extraordinary = b.Extraordinary.Add(m.AmountBaseUSD)
		}
	}

	total := b.Total()
	if total.IsPositive() {
		hundred := decimal.NewFromInt(100)
		b.FixedPct = b.Fixed.Mul(hundred).DivRound(total, 2)
		b.VariablePct = b.Variable.Mul(hundred).DivRound(total, 2)
		b.ExtraordinaryPct = b.Extraordinary.Mul(hundred).DivRound(total, 2)
	} else {
		b.FixedPct = decimal.Zero
		b.VariablePct = decimal.Zero
		b.ExtraordinaryPct = decimal.Zero
	}

	return b
}

// NetResult computes the canonical month result:
// sum of income base USD minus sum of expense base USD.
// Every "month result" or "patrimony result" figure displays this number.
func NetResult(movements []*domain.Movement) decimal.Decimal {
	result := decimal.Zero
	for _, m := range movements {
		if m.Type == domain.MovementTypeIncome {
			result = result.Add(m.AmountBaseUSD)
		} else {
			result = result.Sub(m.AmountBaseUSD)
		}
	}
	return result
}

// MonthSummary is the read model views consume for one calendar month.
type MonthSummary struct {
	Year   int
	Month  int
	Status domain.PeriodStatus

	NetResultUSD     decimal.Decimal
	IncomeTotalUSD   decimal.Decimal
	ExpenseTotalUSD  decimal.Decimal
	ExpenseBreakdown NatureBreakdown

	Movements      []*domain.Movement
	UnclosedPriors []*domain.Period
}

// Summary builds the month read model: net result, expense breakdown by
// nature, period status and the list of earlier months still unclosed. A
// month whose period was never created reads as an empty OPEN month.
func (s *Service) Summary(ctx context.Context, year, month int) (*MonthSummary, error) {
	summary := &MonthSummary{
		Year:   year,
		Month:  month,
		Status: domain.PeriodStatusOpen,
	}

	p, err := s.Periods.Periods.GetByYearMonth(ctx, year, month)
	switch {
	case err == nil:
		summary.Status = p.Status
		movements, err := s.Movements.ListByPeriod(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		summary.Movements = movements
	case errors.Is(err, domain.ErrPeriodNotFound):
		summary.Movements = []*domain.Movement{}
	default:
		return nil, err
	}

	income := decimal.Zero
	expenses := make([]*domain.Movement, 0, len(summary.Movements))
	for _, m := range summary.Movements {
		if m.Type == domain.MovementTypeIncome {
			income = income.Add(m.AmountBaseUSD)
		} else {
			expenses = append(expenses, m)
		}
	}

	summary.IncomeTotalUSD = income
	summary.ExpenseBreakdown = AggregateByCategory(expenses)
	summary.ExpenseTotalUSD = summary.ExpenseBreakdown.Total()
	summary.NetResultUSD = NetResult(summary.Movements)

	priors, err := s.Periods.UnclosedBefore(ctx, year, month)
	if err != nil {
		return nil, err
	}
	summary.UnclosedPriors = priors

	return summary, nil
}
