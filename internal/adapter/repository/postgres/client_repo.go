package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
)

// clientRepository implements domain.ClientRepository
type clientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) domain.ClientRepository {
	return &clientRepository{db: db}
}

// GetByID retrieves a client by its ID
func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT id, full_name, email, status, created_at
		FROM clients
		WHERE id = $1
	`

	var client domain.Client
	var email sql.NullString

	err := r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.FullName,
		&email,
		&client.Status,
		&client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}

	if email.Valid {
		client.Email = email.String
	}

	return &client, nil
}
