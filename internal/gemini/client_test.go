package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// MockGeminiAPI is a mock for the Gemini API
type MockGeminiAPI struct {
	mock.Mock
}

func (m *MockGeminiAPI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGeminiAPI) EmbedContent(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Scheme: PM Awas Yojana. Category: Housing."
	expectedEmbedding := make([]float32, 768)
	for i := range expectedEmbedding {
		expectedEmbedding[i] = float32(i) * 0.001
	}

	mockAPI.On("EmbedContent", ctx, text).Return(expectedEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 768)
	assert.Equal(t, expectedEmbedding, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	embedding, err := client.GenerateEmbedding(ctx, "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, domain.ErrEmptyEmbeddingInput, err)
	mockAPI.AssertNotCalled(t, "EmbedContent")
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Test text"
	apiErr := errors.New("quota exceeded")

	mockAPI.On("EmbedContent", ctx, text).Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Test text"
	// Return embedding with wrong dimensions
	wrongEmbedding := make([]float32, 3072)

	mockAPI.On("EmbedContent", ctx, text).Return(wrongEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, domain.ErrWrongDimensions, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateAnswer_Success(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	prompt := "### Question:\nWhat housing schemes exist?\n\n### Answer:\n"
	mockAPI.On("GenerateContent", ctx, prompt).Return("PM Awas Yojana offers housing assistance.", nil)

	answer, err := client.GenerateAnswer(ctx, prompt)

	assert.NoError(t, err)
	assert.Equal(t, "PM Awas Yojana offers housing assistance.", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateAnswer_APIError(t *testing.T) {
	mockAPI := new(MockGeminiAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	apiErr := errors.New("model overloaded")

	mockAPI.On("GenerateContent", ctx, "prompt").Return("", apiErr)

	answer, err := client.GenerateAnswer(ctx, "prompt")

	assert.Error(t, err)
	assert.Empty(t, answer)
	assert.Contains(t, err.Error(), "failed to generate content")
	mockAPI.AssertExpectations(t)
}
