package seeder

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// Fixed UUIDs for the default concepts so repeated startups stay idempotent
var (
	ConceptSueldo       = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	ConceptAlquiler     = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	ConceptSupermercado = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	ConceptServicios    = uuid.MustParse("00000000-0000-0000-0000-000000000004")
	ConceptAporteFondo  = uuid.MustParse("00000000-0000-0000-0000-000000000005")
)

// ConceptSeeder ensures the default concept catalog exists at startup.
// Concepts beyond these are auto-created by the ledger on first use.
type ConceptSeeder struct {
	repo domain.ConceptRepository
}

// NewConceptSeeder creates a new ConceptSeeder instance
func NewConceptSeeder(repo domain.ConceptRepository) *ConceptSeeder {
	return &ConceptSeeder{repo: repo}
}

// Seed creates each default concept that does not exist yet.
func (s *ConceptSeeder) Seed(ctx context.Context) error {
	defaults := []domain.Concept{
		{ID: ConceptSueldo, Name: "Sueldo", Type: domain.MovementTypeIncome, Nature: domain.NatureFixed},
		{ID: ConceptAlquiler, Name: "Alquiler", Type: domain.MovementTypeExpense, Nature: domain.NatureFixed},
		{ID: ConceptSupermercado, Name: "Supermercado", Type: domain.MovementTypeExpense, Nature: domain.NatureVariable},
		{ID: ConceptServicios, Name: "Servicios", Type: domain.MovementTypeExpense, Nature: domain.NatureFixed},
		{ID: ConceptAporteFondo, Name: "Aporte Fondo", Type: domain.MovementTypeExpense, Nature: domain.NatureFixed},
	}

	for i := range defaults {
		concept := defaults[i]

		_, err := s.repo.GetByID(ctx, concept.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrConceptNotFound) {
			return err
		}

		if err := s.repo.Create(ctx, &concept); err != nil {
			return err
		}
	}

	return nil
}
