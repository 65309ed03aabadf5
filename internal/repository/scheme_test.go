//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/pagination"
	"github.com/yojanasaar/yojanasaar/internal/testutil"
)

func testScheme(sourceID, title, state, category string) *domain.SchemeRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.NewSchemeRecord(
		uuid.NewString(), sourceID,
		title, "Benefits for "+title, category, state, "Dept of "+category,
		"https://www.myscheme.gov.in/schemes/"+sourceID,
		now, now,
	)
}

// basisVector returns a 768-dim vector with a single hot coordinate.
func basisVector(hot int) []float32 {
	v := make([]float32, 768)
	v[hot] = 1
	return v
}

func TestSchemeRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	s := testScheme("pm-kisan", "PM Kisan", "All India", "Agriculture")
	id, err := repo.Upsert(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s.ID, id)

	retrieved, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pm-kisan", retrieved.SourceID)
	assert.Equal(t, "PM Kisan", retrieved.Title)
	assert.Equal(t, "All India", retrieved.State)
	assert.False(t, retrieved.Embedded)
	assert.Positive(t, retrieved.Position)
}

func TestSchemeRepository_Upsert_Conflict(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	first := testScheme("pm-kisan", "PM Kisan", "All India", "Agriculture")
	firstID, err := repo.Upsert(ctx, first)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEmbedding(ctx, firstID, basisVector(0)))

	// Re-scraping the same record keeps the row and its vector.
	same := testScheme("pm-kisan", "PM Kisan", "All India", "Agriculture")
	same.Description = first.Description
	sameID, err := repo.Upsert(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, firstID, sameID)

	kept, err := repo.GetByID(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, kept.Embedded)

	// A text change clears the vector so the backfill re-embeds it.
	changed := testScheme("pm-kisan", "PM Kisan Samman Nidhi", "All India", "Agriculture")
	changed.Description = first.Description
	changedID, err := repo.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, firstID, changedID)

	refreshed, err := repo.GetByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, "PM Kisan Samman Nidhi", refreshed.Title)
	assert.False(t, refreshed.Embedded)
	assert.Equal(t, kept.Position, refreshed.Position)
}

func TestSchemeRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrSchemeNotFound)
}

func TestSchemeRepository_GetByIDs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	a := testScheme("scheme-a", "Scheme A", "Goa", "Agriculture")
	b := testScheme("scheme-b", "Scheme B", "Assam", "Education")
	_, err := repo.Upsert(ctx, a)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, b)
	require.NoError(t, err)

	records, err := repo.GetByIDs(ctx, []string{a.ID, b.ID, uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Scheme A", records[a.ID].Title)
	assert.Equal(t, "Scheme B", records[b.ID].Title)
}

func TestSchemeRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	for i := 0; i < 5; i++ {
		state := "Goa"
		if i%2 == 1 {
			state = "Assam"
		}
		s := testScheme(fmt.Sprintf("scheme-%d", i), fmt.Sprintf("Scheme %d", i), state, "Agriculture")
		_, err := repo.Upsert(ctx, s)
		require.NoError(t, err)
	}

	// First page in catalog order.
	page, err := repo.ListWithCursor(ctx, "", "", nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "Scheme 0", page.Items[0].Title)
	assert.Equal(t, "Scheme 1", page.Items[1].Title)

	cursor, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)

	second, err := repo.ListWithCursor(ctx, "", "", cursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "Scheme 2", second.Items[0].Title)
	assert.Equal(t, "Scheme 3", second.Items[1].Title)

	// Case-insensitive state filter.
	goa, err := repo.ListWithCursor(ctx, "goa", "", nil, 10)
	require.NoError(t, err)
	require.Len(t, goa.Items, 3)
	assert.False(t, goa.HasMore)
	for _, item := range goa.Items {
		assert.Equal(t, "Goa", item.State)
	}
}

func TestSchemeRepository_PendingEmbeddings(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	a := testScheme("scheme-a", "Scheme A", "Goa", "Agriculture")
	b := testScheme("scheme-b", "Scheme B", "Assam", "Education")
	_, err := repo.Upsert(ctx, a)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, b)
	require.NoError(t, err)

	pending, err := repo.ListPendingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)

	require.NoError(t, repo.UpdateEmbedding(ctx, a.ID, basisVector(0)))

	pending, err = repo.ListPendingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	total, embedded, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), embedded)
}

func TestSchemeRepository_UpdateEmbedding_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	err := repo.UpdateEmbedding(ctx, uuid.NewString(), basisVector(0))
	assert.ErrorIs(t, err, domain.ErrSchemeNotFound)
}

func TestSchemeRepository_SearchByEmbedding(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	exact := testScheme("exact", "Exact", "Goa", "Agriculture")
	near := testScheme("near", "Near", "Goa", "Agriculture")
	far := testScheme("far", "Far", "Goa", "Agriculture")
	unembedded := testScheme("none", "None", "Goa", "Agriculture")

	for _, s := range []*domain.SchemeRecord{exact, near, far, unembedded} {
		_, err := repo.Upsert(ctx, s)
		require.NoError(t, err)
	}

	nearVec := make([]float32, 768)
	nearVec[0] = 1
	nearVec[1] = 1

	require.NoError(t, repo.UpdateEmbedding(ctx, exact.ID, basisVector(0)))
	require.NoError(t, repo.UpdateEmbedding(ctx, near.ID, nearVec))
	require.NoError(t, repo.UpdateEmbedding(ctx, far.ID, basisVector(1)))

	matches, err := repo.SearchByEmbedding(ctx, basisVector(0), 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, exact.ID, matches[0].SchemeID)
	assert.Equal(t, near.ID, matches[1].SchemeID)
	assert.Equal(t, far.ID, matches[2].SchemeID)

	// score = 1 / (1 + cosine distance)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-3)
	assert.InDelta(t, 1.0/(2.0-0.70710678), matches[1].Score, 1e-3)
	assert.InDelta(t, 0.5, matches[2].Score, 1e-3)

	limited, err := repo.SearchByEmbedding(ctx, basisVector(0), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSchemeRepository_LoadCorpus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	a := testScheme("scheme-a", "Scheme A", "Goa", "Agriculture")
	b := testScheme("scheme-b", "Scheme B", "Assam", "Education")
	_, err := repo.Upsert(ctx, a)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, b)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEmbedding(ctx, b.ID, basisVector(3)))

	entries, err := repo.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].Scheme.ID)
	assert.True(t, entries[0].Scheme.Embedded)
	require.Len(t, entries[0].Vector, 768)
	assert.InDelta(t, 1.0, entries[0].Vector[3], 1e-6)
}

func TestSchemeRepository_DistinctFilters(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSchemeRepository(pool)

	for _, s := range []*domain.SchemeRecord{
		testScheme("s1", "One", "Goa", "Agriculture"),
		testScheme("s2", "Two", "Assam", "Education"),
		testScheme("s3", "Three", "Goa", "Education"),
	} {
		_, err := repo.Upsert(ctx, s)
		require.NoError(t, err)
	}

	states, err := repo.DistinctStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Assam", "Goa"}, states)

	categories, err := repo.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Agriculture", "Education"}, categories)
}
