package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

type locationStore struct {
	db DB
}

func NewLocationStore(db DB) interfaces.LocationStore {
	return &locationStore{db: db}
}

// HasLocationAccess checks owner-of-business or staff membership.
func (s *locationStore) HasLocationAccess(ctx context.Context, userID, locationID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM locations
			WHERE id = $1 AND owner_id = $2
		) OR EXISTS (
			SELECT 1 FROM location_staff
			WHERE location_id = $1 AND user_id = $2
		)
	`
	var ok bool
	if err := s.db.QueryRow(ctx, query, locationID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check location access: %w", err)
	}
	return ok, nil
}
