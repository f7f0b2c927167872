package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/lunchtab/internal/models"
)

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt.IsZero() {
		settlement.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, user_name, amount, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		settlement.ID, settlement.UserName, settlement.Amount, settlement.CreatedBy,
		settlement.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlements retrieves all settlements, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_name, amount, created_by, created_at
		 FROM settlements ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var createdAt int64
		if err := rows.Scan(&settlement.ID, &settlement.UserName, &settlement.Amount,
			&settlement.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.CreatedAt = fromNanos(createdAt)
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
