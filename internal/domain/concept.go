package domain

import (
	"github.com/google/uuid"
)

// ConceptNature classifies how a concept behaves month to month
type ConceptNature string

const (
	NatureFixed         ConceptNature = "FIXED"
	NatureVariable      ConceptNature = "VARIABLE"
	NatureExtraordinary ConceptNature = "EXTRAORDINARY"
)

// Valid reports whether the nature is one of the known values.
func (n ConceptNature) Valid() bool {
	return n == NatureFixed || n == NatureVariable || n == NatureExtraordinary
}

// Concept represents a named category of recurring or ad hoc movements.
// Names are unique within a movement type. Nature edits apply forward only:
// movements snapshot the nature at creation and keep it.
type Concept struct {
	ID     uuid.UUID
	Name   string
	Type   MovementType
	Nature ConceptNature
}

// Validate ensures the concept adheres to domain rules
func (c *Concept) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}

	if c.Type != MovementTypeIncome && c.Type != MovementTypeExpense {
		return NewValidationError("type", "must be INCOME or EXPENSE")
	}

	if !c.Nature.Valid() {
		return NewValidationError("nature", "must be FIXED, VARIABLE or EXTRAORDINARY")
	}

	return nil
}
