package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

// HistoryRepo records searches and analytics events.
type HistoryRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepo creates a HistoryRepo.
func NewHistoryRepo(conn *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: conn, now: time.Now}
}

// RecordSearch inserts a completed search and returns its id.
func (r *HistoryRepo) RecordSearch(ctx context.Context, e user.HistoryEntry, q query.Normalized) (string, error) {
	normalized, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal normalized query: %w", err)
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO search_history (
	id, user_id, category_id, subcategory_id, query_hash, normalized_query, region, results_count, completed, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		id, e.UserID, e.CategoryID, e.SubcategoryID, e.QueryHash, normalized,
		e.Region, e.ResultsCount, e.Completed, createdAt,
	)
	if err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	return id, nil
}

// Track inserts an analytics event.
func (r *HistoryRepo) Track(ctx context.Context, e user.Event) error {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analytics_events (user_id, event_type, event_data, created_at) VALUES ($1, $2, $3, $4)`,
		nullString(e.UserID), e.Name, payload, createdAt,
	)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}
