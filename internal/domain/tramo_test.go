package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func closedTramo(fundID uuid.UUID, inicio, fin time.Time) *Tramo {
	return &Tramo{
		ID:                  uuid.New(),
		FundID:              fundID,
		FechaInicio:         inicio,
		FechaFin:            &fin,
		Instrumento:         "ETF",
		RendimientoEsperado: decimal.NewFromInt(8),
		InflacionAsumida:    decimal.NewFromInt(3),
		AporteMensual:       decimal.NewFromInt(100),
	}
}

func openTramo(fundID uuid.UUID, inicio time.Time) *Tramo {
	t := closedTramo(fundID, inicio, inicio)
	t.FechaFin = nil
	return t
}

func TestValidateTramoSequence(t *testing.T) {
	fundID := uuid.New()

	tests := []struct {
		name    string
		tramos  []*Tramo
		wantErr error
	}{
		{
			name:    "empty sequence is valid",
			tramos:  nil,
			wantErr: nil,
		},
		{
			name:    "single open tramo is valid",
			tramos:  []*Tramo{openTramo(fundID, day(2022, 1, 1))},
			wantErr: nil,
		},
		{
			name: "contiguous closed then open is valid",
			tramos: []*Tramo{
				closedTramo(fundID, day(2022, 1, 1), day(2023, 12, 31)),
				openTramo(fundID, day(2024, 1, 1)),
			},
			wantErr: nil,
		},
		{
			name: "gap between tramos is a sequence error",
			tramos: []*Tramo{
				closedTramo(fundID, day(2022, 1, 1), day(2023, 12, 31)),
				openTramo(fundID, day(2024, 2, 1)),
			},
			wantErr: ErrTramoSequence,
		},
		{
			name: "overlap is a sequence error",
			tramos: []*Tramo{
				closedTramo(fundID, day(2022, 1, 1), day(2023, 12, 31)),
				openTramo(fundID, day(2023, 12, 1)),
			},
			wantErr: ErrTramoSequence,
		},
		{
			name: "open tramo not last is a sequence error",
			tramos: []*Tramo{
				openTramo(fundID, day(2022, 1, 1)),
				openTramo(fundID, day(2024, 1, 1)),
			},
			wantErr: ErrTramoSequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTramoSequence(tt.tramos)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTramo_Validate(t *testing.T) {
	fundID := uuid.New()

	valid := openTramo(fundID, day(2024, 1, 1))
	assert.NoError(t, valid.Validate())

	noFund := openTramo(uuid.Nil, day(2024, 1, 1))
	assert.Error(t, noFund.Validate())

	finBeforeInicio := closedTramo(fundID, day(2024, 6, 1), day(2024, 1, 1))
	assert.Error(t, finBeforeInicio.Validate())

	negativeAporte := openTramo(fundID, day(2024, 1, 1))
	negativeAporte.AporteMensual = decimal.NewFromInt(-10)
	assert.Error(t, negativeAporte.Validate())
}
