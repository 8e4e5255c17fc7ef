package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

type tableStore struct {
	db DB
}

func NewTableStore(db DB) interfaces.TableStore {
	return &tableStore{db: db}
}

func (s *tableStore) Find(ctx context.Context, id uuid.UUID) (*domain.Table, error) {
	query := `
		SELECT id, location_id, number, name, capacity, status, sort_order, created_at, updated_at
		FROM tables
		WHERE id = $1
	`
	var t domain.Table
	err := s.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.LocationID, &t.Number, &t.Name, &t.Capacity,
		&t.Status, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "table %s not found", id)
		}
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	return &t, nil
}

func (s *tableStore) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Table, error) {
	query := `
		SELECT id, location_id, number, name, capacity, status, sort_order, created_at, updated_at
		FROM tables
		WHERE location_id = $1
		ORDER BY sort_order ASC, number ASC
	`
	rows, err := s.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(
			&t.ID, &t.LocationID, &t.Number, &t.Name, &t.Capacity,
			&t.Status, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &t)
	}
	return tables, rows.Err()
}

func (s *tableStore) SetStatus(ctx context.Context, tableID uuid.UUID, status domain.TableStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE tables SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), tableID)
	if err != nil {
		return fmt.Errorf("failed to update table status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "table %s not found", tableID)
	}
	return nil
}

func (s *tableStore) Delete(ctx context.Context, tableID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tables WHERE id = $1`, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "table %s not found", tableID)
	}
	return nil
}
