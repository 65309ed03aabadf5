package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProcessor is a mock implementation of Processor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBackfillService is a mock implementation of BackfillService
type MockBackfillService struct {
	mock.Mock
}

func (m *MockBackfillService) EmbedPending(ctx context.Context, batchSize int) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockProcessor)
	mockProcessor.On("Process", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify Process was called at least once
	mockProcessor.AssertCalled(t, "Process", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockProcessor)
	mockProcessor.On("Process", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify Process was called
	mockProcessor.AssertCalled(t, "Process", mock.Anything)
}

// TestWorker_KeepsPollingAfterError tests that a failed poll does not stop the loop
func TestWorker_KeepsPollingAfterError(t *testing.T) {
	mockProcessor := new(MockProcessor)
	mockProcessor.On("Process", mock.Anything).Return(errors.New("batch failed"))

	worker := NewWorker(mockProcessor, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(180 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

// TestEmbeddingWorker_Process_Success tests a successful backfill batch
func TestEmbeddingWorker_Process_Success(t *testing.T) {
	mockService := new(MockBackfillService)
	mockService.On("EmbedPending", mock.Anything, 8).Return(3, nil)

	worker := NewEmbeddingWorker(mockService, 8)
	err := worker.Process(context.Background())

	assert.NoError(t, err)
	mockService.AssertExpectations(t)
}

// TestEmbeddingWorker_Process_NothingPending tests an empty backfill batch
func TestEmbeddingWorker_Process_NothingPending(t *testing.T) {
	mockService := new(MockBackfillService)
	mockService.On("EmbedPending", mock.Anything, DefaultBatchSize).Return(0, nil)

	worker := NewEmbeddingWorker(mockService, 0)
	err := worker.Process(context.Background())

	assert.NoError(t, err)
	mockService.AssertExpectations(t)
}

// TestEmbeddingWorker_Process_ServiceError tests backfill error propagation
func TestEmbeddingWorker_Process_ServiceError(t *testing.T) {
	mockService := new(MockBackfillService)
	mockService.On("EmbedPending", mock.Anything, DefaultBatchSize).Return(1, errors.New("provider quota exceeded"))

	worker := NewEmbeddingWorker(mockService, DefaultBatchSize)
	err := worker.Process(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed pending schemes")
	mockService.AssertExpectations(t)
}
