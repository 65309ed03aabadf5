package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// MockScrapeRunRepository is a mock implementation of ScrapeRunRepositoryInterface
type MockScrapeRunRepository struct {
	mock.Mock
}

func (m *MockScrapeRunRepository) Create(ctx context.Context, run *domain.ScrapeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockScrapeRunRepository) Finish(ctx context.Context, run *domain.ScrapeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockScrapeRunRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScrapeRun), args.Error(1)
}

func (m *MockScrapeRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScrapeRun), args.Error(1)
}

// MockSnapshotStore is a mock implementation of SnapshotStoreInterface
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) UploadScrapeSnapshot(ctx context.Context, runID string, schemes []*domain.SchemeRecord) (string, error) {
	args := m.Called(ctx, runID, schemes)
	return args.String(0), args.Error(1)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

// stubFetcher emits a fixed page sequence, stopping at the first callback
// error like the real catalog walker does.
type stubFetcher struct {
	pages []ScrapePage
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context, fn func(page ScrapePage) error) error {
	for _, p := range f.pages {
		if err := fn(p); err != nil {
			return err
		}
	}
	return f.err
}

func scrapePages() []ScrapePage {
	return []ScrapePage{
		{
			From:  0,
			Total: 3,
			Schemes: []*domain.SchemeRecord{
				schemeFixture("s1", "Scheme One", "Goa", "Agriculture"),
				schemeFixture("s2", "Scheme Two", "Assam", "Education"),
			},
		},
		{
			From:  2,
			Total: 3,
			Schemes: []*domain.SchemeRecord{
				schemeFixture("s3", "Scheme Three", "Bihar", "Health"),
			},
		},
	}
}

// TestScrapeService_Run tests the Run method
func TestScrapeService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts every page and completes the run", func(t *testing.T) {
		mockSchemeRepo := new(MockSchemeRepository)
		mockRunRepo := new(MockScrapeRunRepository)
		mockSnapshots := new(MockSnapshotStore)
		txRunner := &testTxRunner{repos: &testTxRepos{schemes: mockSchemeRepo, scrapeRuns: mockRunRepo}}
		fetcher := &stubFetcher{pages: scrapePages()}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, mockSnapshots, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.ID == "run-1" && r.Status == domain.ScrapeRunStatusRunning
		})).Return(nil)
		mockSchemeRepo.On("Upsert", mock.Anything, mock.Anything).Return("id", nil).Times(3)
		mockSnapshots.On("UploadScrapeSnapshot", mock.Anything, "run-1", mock.MatchedBy(func(schemes []*domain.SchemeRecord) bool {
			return len(schemes) == 3
		})).Return("scrapes/run-1.json", nil)
		mockRunRepo.On("Finish", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.Status == domain.ScrapeRunStatusCompleted &&
				r.Pages == 2 &&
				r.SchemesUpserted == 3 &&
				r.TotalReported == 3 &&
				r.SnapshotKey == "scrapes/run-1.json" &&
				r.FinishedAt != nil
		})).Return(nil)

		run, err := service.Run(ctx)

		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, domain.ScrapeRunStatusCompleted, run.Status)
		assert.True(t, txRunner.called)

		mockSchemeRepo.AssertExpectations(t)
		mockRunRepo.AssertExpectations(t)
		mockSnapshots.AssertExpectations(t)
	})

	t.Run("runs without a snapshot store", func(t *testing.T) {
		mockSchemeRepo := new(MockSchemeRepository)
		mockRunRepo := new(MockScrapeRunRepository)
		txRunner := &testTxRunner{repos: &testTxRepos{schemes: mockSchemeRepo, scrapeRuns: mockRunRepo}}
		fetcher := &stubFetcher{pages: scrapePages()}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, nil, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockSchemeRepo.On("Upsert", mock.Anything, mock.Anything).Return("id", nil)
		mockRunRepo.On("Finish", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.Status == domain.ScrapeRunStatusCompleted && r.SnapshotKey == ""
		})).Return(nil)

		run, err := service.Run(ctx)

		require.NoError(t, err)
		assert.Empty(t, run.SnapshotKey)
	})

	t.Run("a failed snapshot upload does not fail the run", func(t *testing.T) {
		mockSchemeRepo := new(MockSchemeRepository)
		mockRunRepo := new(MockScrapeRunRepository)
		mockSnapshots := new(MockSnapshotStore)
		txRunner := &testTxRunner{repos: &testTxRepos{schemes: mockSchemeRepo, scrapeRuns: mockRunRepo}}
		fetcher := &stubFetcher{pages: scrapePages()}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, mockSnapshots, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockSchemeRepo.On("Upsert", mock.Anything, mock.Anything).Return("id", nil)
		mockSnapshots.On("UploadScrapeSnapshot", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))
		mockRunRepo.On("Finish", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.Status == domain.ScrapeRunStatusCompleted && r.SnapshotKey == ""
		})).Return(nil)

		run, err := service.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.ScrapeRunStatusCompleted, run.Status)
	})

	t.Run("an aborted walk records a failed run with partial progress", func(t *testing.T) {
		mockSchemeRepo := new(MockSchemeRepository)
		mockRunRepo := new(MockScrapeRunRepository)
		txRunner := &testTxRunner{repos: &testTxRepos{schemes: mockSchemeRepo, scrapeRuns: mockRunRepo}}
		fetcher := &stubFetcher{pages: scrapePages()[:1], err: errors.New("upstream 500")}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, nil, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockSchemeRepo.On("Upsert", mock.Anything, mock.Anything).Return("id", nil).Twice()
		mockRunRepo.On("Finish", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.Status == domain.ScrapeRunStatusFailed &&
				r.Pages == 1 &&
				r.SchemesUpserted == 2 &&
				r.Error == "upstream 500"
		})).Return(nil)

		run, err := service.Run(ctx)

		require.Error(t, err)
		assert.Nil(t, run)
		mockRunRepo.AssertExpectations(t)
	})

	t.Run("an upsert failure aborts the walk", func(t *testing.T) {
		mockSchemeRepo := new(MockSchemeRepository)
		mockRunRepo := new(MockScrapeRunRepository)
		txRunner := &testTxRunner{repos: &testTxRepos{schemes: mockSchemeRepo, scrapeRuns: mockRunRepo}}
		fetcher := &stubFetcher{pages: scrapePages()}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, nil, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockSchemeRepo.On("Upsert", mock.Anything, mock.Anything).Return("", errors.New("constraint violation"))
		mockRunRepo.On("Finish", mock.Anything, mock.MatchedBy(func(r *domain.ScrapeRun) bool {
			return r.Status == domain.ScrapeRunStatusFailed && r.Pages == 0
		})).Return(nil)

		run, err := service.Run(ctx)

		require.Error(t, err)
		assert.Nil(t, run)
	})

	t.Run("a run that cannot be created is not started", func(t *testing.T) {
		mockRunRepo := new(MockScrapeRunRepository)
		txRunner := &testTxRunner{repos: &testTxRepos{}}
		fetcher := &stubFetcher{pages: scrapePages()}

		service := NewScrapeServiceWithUUIDGen(fetcher, mockRunRepo, txRunner, nil, NewMockUUIDGenerator("run-1"))

		mockRunRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

		run, err := service.Run(ctx)

		require.Error(t, err)
		assert.Nil(t, run)
		assert.False(t, txRunner.called)
	})
}
