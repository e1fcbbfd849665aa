package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// FarmRepository implements domain.FarmRepository on PostgreSQL with a
// short in-process cache: the farm list only feeds the recurring cadences,
// so slightly stale results are fine and save one full-table query per
// tick.
type FarmRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cacheTTL time.Duration

	mu        sync.Mutex
	cached    []domain.Farm
	fetchedAt time.Time
}

// NewFarmRepository creates a new PostgreSQL farm repository.
func NewFarmRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration) *FarmRepository {
	return &FarmRepository{
		db:       db,
		logger:   logger.With("component", "farm_repository"),
		cacheTTL: cacheTTL,
	}
}

// ListFarms returns every registered farm with its owner contact.
func (r *FarmRepository) ListFarms(ctx context.Context) ([]domain.Farm, error) {
	r.mu.Lock()
	if r.cacheTTL > 0 && r.cached != nil && time.Since(r.fetchedAt) < r.cacheTTL {
		farms := r.cached
		r.mu.Unlock()
		return farms, nil
	}
	r.mu.Unlock()

	query := `SELECT f.id, f.name, f.location_id,
			COALESCE(u.id, ''), COALESCE(u.email, ''), COALESCE(u.phone, ''), COALESCE(u.locale, '')
		FROM farms f
		LEFT JOIN users u ON u.id = f.owner_id
		ORDER BY f.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query farms: %w", err)
	}
	defer rows.Close()

	var farms []domain.Farm
	for rows.Next() {
		var f domain.Farm
		if err := rows.Scan(&f.ID, &f.Name, &f.LocationID,
			&f.Owner.UserID, &f.Owner.Email, &f.Owner.Phone, &f.Owner.Locale); err != nil {
			return nil, fmt.Errorf("scan farm: %w", err)
		}
		farms = append(farms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = farms
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return farms, nil
}
