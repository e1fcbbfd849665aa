package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// RuleRepository implements domain.RuleRepository on PostgreSQL. Threshold
// bands and channel flags live in JSONB columns; the owner contact is
// hydrated from the users table in the same query.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRuleRepository creates a new PostgreSQL rule repository.
func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger.With("component", "rule_repository")}
}

const ruleColumns = `
	r.id, r.owner_id, r.location_id, r.rule_type, r.thresholds, r.channels,
	r.is_active, r.last_fired_at,
	COALESCE(u.email, ''), COALESCE(u.phone, ''), COALESCE(u.locale, '')`

// GetRule loads one rule with its owner contact.
func (r *RuleRepository) GetRule(ctx context.Context, id string) (*domain.AlertRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM alert_rules r
		LEFT JOIN users u ON u.id = r.owner_id
		WHERE r.id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("query rule %s: %w", id, err)
	}
	return rule, nil
}

// ListActiveRules returns every active rule with its owner contact.
func (r *RuleRepository) ListActiveRules(ctx context.Context) ([]domain.AlertRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM alert_rules r
		LEFT JOIN users u ON u.id = r.owner_id
		WHERE r.is_active
		ORDER BY r.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// MarkFired performs the conditional cooldown write: it only succeeds when
// last_fired_at still holds the value the caller observed, so two
// concurrent breached evaluations cannot both fire. The update commits
// before this returns.
func (r *RuleRepository) MarkFired(ctx context.Context, id string, prev *time.Time, firedAt time.Time) (bool, error) {
	query := `UPDATE alert_rules
		SET last_fired_at = $1
		WHERE id = $2
		  AND (last_fired_at = $3 OR (last_fired_at IS NULL AND $3::timestamptz IS NULL))`

	var prevArg sql.NullTime
	if prev != nil {
		prevArg = sql.NullTime{Time: prev.UTC(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, firedAt.UTC(), id, prevArg)
	if err != nil {
		return false, fmt.Errorf("mark rule %s fired: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for rule %s: %w", id, err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.AlertRule, error) {
	var (
		rule          domain.AlertRule
		thresholdsRaw []byte
		channelsRaw   []byte
		lastFired     sql.NullTime
	)
	err := row.Scan(
		&rule.ID, &rule.OwnerID, &rule.LocationID, &rule.RuleType,
		&thresholdsRaw, &channelsRaw, &rule.IsActive, &lastFired,
		&rule.Contact.Email, &rule.Contact.Phone, &rule.Contact.Locale,
	)
	if err != nil {
		return nil, err
	}
	rule.Contact.UserID = rule.OwnerID
	if lastFired.Valid {
		t := lastFired.Time.UTC()
		rule.LastFiredAt = &t
	}
	if len(thresholdsRaw) > 0 {
		if err := json.Unmarshal(thresholdsRaw, &rule.Thresholds); err != nil {
			return nil, fmt.Errorf("unmarshal thresholds for rule %s: %w", rule.ID, err)
		}
	}
	if len(channelsRaw) > 0 {
		if err := json.Unmarshal(channelsRaw, &rule.Channels); err != nil {
			return nil, fmt.Errorf("unmarshal channels for rule %s: %w", rule.ID, err)
		}
	}
	return &rule, nil
}
