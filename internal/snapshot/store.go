package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/index"
	"github.com/yojanasaar/yojanasaar/internal/pagination"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

// ErrReadOnly is returned by every mutating method of Store. Snapshot
// serving never writes; scrape and index runs require a live database.
var ErrReadOnly = fmt.Errorf("snapshot store is read-only")

// Store serves a loaded corpus entirely from memory, so the API can run
// from a snapshot file without a database. It implements the same
// repository surface the Postgres store does for the read paths.
type Store struct {
	records []*domain.SchemeRecord
	byID    map[string]*domain.SchemeRecord
}

// NewStore builds a Store from corpus entries. Entries arrive in insertion
// order and keep it.
func NewStore(entries []index.Entry) *Store {
	records := make([]*domain.SchemeRecord, len(entries))
	byID := make(map[string]*domain.SchemeRecord, len(entries))
	for i := range entries {
		s := entries[i].Scheme
		records[i] = &s
		byID[s.ID] = &s
	}
	return &Store{records: records, byID: byID}
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error) {
	record, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrSchemeNotFound
	}
	return record, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.SchemeRecord, error) {
	result := make(map[string]*domain.SchemeRecord, len(ids))
	for _, id := range ids {
		if record, ok := s.byID[id]; ok {
			result[id] = record
		}
	}
	return result, nil
}

func (s *Store) ListWithCursor(ctx context.Context, state, category string, cursor *pagination.Cursor, limit int) (*service.SchemePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	items := make([]*domain.SchemeRecord, 0, limit+1)
	for _, record := range s.records {
		if state != "" && !strings.EqualFold(record.State, state) {
			continue
		}
		if category != "" && !strings.EqualFold(record.Category, category) {
			continue
		}
		if cursor != nil && record.Position <= cursor.Position {
			continue
		}
		items = append(items, record)
		if len(items) > limit {
			break
		}
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

// ListPendingEmbedding always returns an empty slice: snapshots contain
// only embedded schemes.
func (s *Store) ListPendingEmbedding(ctx context.Context, limit int) ([]*domain.SchemeRecord, error) {
	return []*domain.SchemeRecord{}, nil
}

func (s *Store) Upsert(ctx context.Context, record *domain.SchemeRecord) (string, error) {
	return "", ErrReadOnly
}

func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	return ErrReadOnly
}

func (s *Store) DistinctStates(ctx context.Context) ([]string, error) {
	return s.distinctValues(func(r *domain.SchemeRecord) string { return r.State }), nil
}

func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.distinctValues(func(r *domain.SchemeRecord) string { return r.Category }), nil
}

func (s *Store) distinctValues(get func(*domain.SchemeRecord) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, record := range s.records {
		v := get(record)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func (s *Store) Counts(ctx context.Context) (total, embedded int64, err error) {
	n := int64(len(s.records))
	return n, n, nil
}
