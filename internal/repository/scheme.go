package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/index"
	"github.com/yojanasaar/yojanasaar/internal/pagination"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

// dbtx abstracts over a pool and an open transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemeColumns = `id, source_id, title, description, category, state, department, link, position, (embedding IS NOT NULL), created_at, updated_at`

// SchemeRepository persists the scheme catalog and its embeddings.
type SchemeRepository struct {
	db dbtx
}

func NewSchemeRepository(pool *pgxpool.Pool) *SchemeRepository {
	return &SchemeRepository{db: pool}
}

func NewSchemeRepositoryWithTx(tx pgx.Tx) *SchemeRepository {
	return &SchemeRepository{db: tx}
}

// Upsert inserts a scheme or refreshes an existing one by source_id. The
// embedding is cleared when any text field changed, so the backfill worker
// re-embeds the record; position keeps its original value either way.
func (r *SchemeRepository) Upsert(ctx context.Context, s *domain.SchemeRecord) (string, error) {
	if err := domain.ValidateSchemeRecord(s); err != nil {
		return "", err
	}

	var id string
	err := r.db.QueryRow(ctx,
		`INSERT INTO schemes (id, source_id, title, description, category, state, department, link, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (source_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   category = EXCLUDED.category,
		   state = EXCLUDED.state,
		   department = EXCLUDED.department,
		   link = EXCLUDED.link,
		   updated_at = EXCLUDED.updated_at,
		   embedding = CASE
		     WHEN (schemes.title, schemes.description, schemes.category, schemes.state, schemes.department)
		          IS DISTINCT FROM
		          (EXCLUDED.title, EXCLUDED.description, EXCLUDED.category, EXCLUDED.state, EXCLUDED.department)
		     THEN NULL
		     ELSE schemes.embedding
		   END
		 RETURNING id`,
		s.ID, s.SourceID, s.Title, s.Description, s.Category, s.State, s.Department, s.Link, s.CreatedAt, s.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *SchemeRepository) GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error) {
	var s domain.SchemeRecord
	err := r.db.QueryRow(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.SourceID, &s.Title, &s.Description, &s.Category, &s.State, &s.Department, &s.Link, &s.Position, &s.Embedded, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSchemeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDs batch-fetches schemes. Missing ids are simply absent from the
// result map; the pipeline decides whether that is fatal.
func (r *SchemeRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.SchemeRecord, error) {
	result := make(map[string]*domain.SchemeRecord, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schemes, err := scanSchemeRows(rows)
	if err != nil {
		return nil, err
	}
	for _, s := range schemes {
		result[s.ID] = s
	}
	return result, nil
}

// ListWithCursor pages through the catalog in insertion order, optionally
// narrowed to a state and category (case-insensitive exact match).
func (r *SchemeRepository) ListWithCursor(ctx context.Context, state, category string, cursor *pagination.Cursor, limit int) (*service.SchemePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + schemeColumns + ` FROM schemes WHERE 1=1`
	args := []any{}

	if state != "" {
		args = append(args, state)
		query += ` AND LOWER(state) = LOWER($` + strconv.Itoa(len(args)) + `)`
	}
	if category != "" {
		args = append(args, category)
		query += ` AND LOWER(category) = LOWER($` + strconv.Itoa(len(args)) + `)`
	}
	if cursor != nil {
		args = append(args, cursor.Position)
		query += ` AND position > $` + strconv.Itoa(len(args))
	}

	args = append(args, limit+1)
	query += ` ORDER BY position LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanSchemeRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.Position)
	}

	return &service.SchemePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListPendingEmbedding returns schemes that still need a vector, oldest
// first, up to limit.
func (r *SchemeRepository) ListPendingEmbedding(ctx context.Context, limit int) ([]*domain.SchemeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE embedding IS NULL ORDER BY position LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchemeRows(rows)
}

func (r *SchemeRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE schemes SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSchemeNotFound
	}
	return nil
}

// SearchByEmbedding returns the k nearest indexed schemes by cosine
// distance. The filter step happens after retrieval in the pipeline, never
// here, so a state or category restriction cannot influence ranking.
func (r *SchemeRepository) SearchByEmbedding(ctx context.Context, vector []float32, k int) ([]index.Match, error) {
	if k <= 0 {
		return []index.Match{}, nil
	}

	vec := pgvector.NewVector(vector)
	rows, err := r.db.Query(ctx,
		`SELECT id, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM schemes
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1, position
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]index.Match, 0, k)
	for rows.Next() {
		var m index.Match
		if err := rows.Scan(&m.SchemeID, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// LoadCorpus streams every indexed scheme with its vector in insertion
// order, for building the in-memory backend or a snapshot file.
func (r *SchemeRepository) LoadCorpus(ctx context.Context) ([]index.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source_id, title, description, category, state, department, link, position, embedding, created_at, updated_at
		 FROM schemes WHERE embedding IS NOT NULL ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []index.Entry
	for rows.Next() {
		var e index.Entry
		var vec pgvector.Vector
		if err := rows.Scan(
			&e.Scheme.ID, &e.Scheme.SourceID, &e.Scheme.Title, &e.Scheme.Description,
			&e.Scheme.Category, &e.Scheme.State, &e.Scheme.Department, &e.Scheme.Link,
			&e.Scheme.Position, &vec, &e.Scheme.CreatedAt, &e.Scheme.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Scheme.Embedded = true
		e.Vector = vec.Slice()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DistinctStates returns the non-empty state values present in the catalog.
func (r *SchemeRepository) DistinctStates(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT state FROM schemes WHERE state <> '' ORDER BY state`)
}

// DistinctCategories returns the non-empty category values present in the catalog.
func (r *SchemeRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT category FROM schemes WHERE category <> '' ORDER BY category`)
}

func (r *SchemeRepository) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Counts returns the total number of schemes and how many carry an embedding.
func (r *SchemeRepository) Counts(ctx context.Context) (total, embedded int64, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(embedding) FROM schemes`,
	).Scan(&total, &embedded)
	return total, embedded, err
}

func scanSchemeRows(rows pgx.Rows) ([]*domain.SchemeRecord, error) {
	var results []*domain.SchemeRecord
	for rows.Next() {
		var s domain.SchemeRecord
		if err := rows.Scan(&s.ID, &s.SourceID, &s.Title, &s.Description, &s.Category, &s.State, &s.Department, &s.Link, &s.Position, &s.Embedded, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}
