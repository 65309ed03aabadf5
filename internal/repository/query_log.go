package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yojanasaar/yojanasaar/internal/service"
)

// QueryLogRepository stores query logs for evaluation/feedback loops.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) CreateQueryLog(ctx context.Context, entry service.QueryLogEntry) (string, error) {
	filters := map[string]any{}
	filters["query_length"] = len(entry.Query)
	if entry.State != "" {
		filters["state"] = entry.State
	}
	if entry.Category != "" {
		filters["category"] = entry.Category
	}

	filtersJSON, _ := json.Marshal(filters)
	schemeIDsJSON, _ := json.Marshal(entry.SchemeIDs)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO query_logs (query, k, filters, scheme_ids, result_count, answered, error_code, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.Query,
		entry.K,
		filtersJSON,
		schemeIDsJSON,
		entry.ResultCount,
		entry.Answered,
		nullableString(entry.ErrorCode),
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
