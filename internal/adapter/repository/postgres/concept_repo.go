package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// conceptRepository implements domain.ConceptRepository
type conceptRepository struct {
	db *DB
}

// NewConceptRepository creates a new concept repository
func NewConceptRepository(db *DB) domain.ConceptRepository {
	return &conceptRepository{db: db}
}

// GetByID retrieves a concept by its ID
func (r *conceptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	query := `
		SELECT id, name, type, nature
		FROM concepts
		WHERE id = $1
	`

	var c domain.Concept
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Type, &c.Nature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConceptNotFound
		}
		return nil, fmt.Errorf("failed to get concept by ID: %w", err)
	}

	return &c, nil
}

// GetByNameAndType retrieves a concept by its unique (name, type) pair
func (r *conceptRepository) GetByNameAndType(ctx context.Context, name string, conceptType domain.MovementType) (*domain.Concept, error) {
	query := `
		SELECT id, name, type, nature
		FROM concepts
		WHERE name = $1 AND type = $2
	`

	var c domain.Concept
	err := r.db.QueryRowContext(ctx, query, name, string(conceptType)).Scan(&c.ID, &c.Name, &c.Type, &c.Nature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConceptNotFound
		}
		return nil, fmt.Errorf("failed to get concept by name: %w", err)
	}

	return &c, nil
}

// Create creates a new concept
func (r *conceptRepository) Create(ctx context.Context, concept *domain.Concept) error {
	query := `
		INSERT INTO concepts (id, name, type, nature)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		concept.ID,
		concept.Name,
		string(concept.Type),
		string(concept.Nature),
	)
	if err != nil {
		return fmt.Errorf("failed to create concept: %w", err)
	}

	return nil
}

// UpdateNature reclassifies a concept's nature. Movements keep the nature
// they snapshotted at creation.
func (r *conceptRepository) UpdateNature(ctx context.Context, id uuid.UUID, nature domain.ConceptNature) error {
	query := `
		UPDATE concepts
		SET nature = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, string(nature), id)
	if err != nil {
		return fmt.Errorf("failed to update concept nature: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrConceptNotFound
	}

	return nil
}

// List retrieves concepts ordered by name, optionally filtered by type
func (r *conceptRepository) List(ctx context.Context, typeFilter domain.MovementType) ([]*domain.Concept, error) {
	query := `
		SELECT id, name, type, nature
		FROM concepts
	`
	args := []interface{}{}

	if typeFilter != "" {
		query += ` WHERE type = $1`
		args = append(args, string(typeFilter))
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	defer rows.Close()

	concepts := make([]*domain.Concept, 0)
	for rows.Next() {
		var c domain.Concept
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Nature); err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		concepts = append(concepts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concepts: %w", err)
	}

	return concepts, nil
}
