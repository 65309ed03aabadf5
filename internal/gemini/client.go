package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

const (
	// DefaultChatModel is the Gemini model used for generating answers
	DefaultChatModel = "gemini-2.0-flash"
	// DefaultEmbeddingModel is the Gemini model used for generating embeddings.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions matches the vector column width in the schema
	DefaultEmbeddingDimensions = 768
)

// API defines the Gemini calls the client depends on
type API interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	EmbedContent(ctx context.Context, text string) ([]float32, error)
}

// Client adapts the Gemini API to the embedding and generation interfaces
// the answer pipeline consumes.
type Client struct {
	api        API
	dimensions int
}

type GeminiAdapter struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	dimensions     int32
}

func NewGeminiAdapter(ctx context.Context, cfg Config) (*GeminiAdapter, error) {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiAdapter{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		dimensions:     int32(dimensions),
	}, nil
}

// GenerateContent calls the Gemini API with the full prompt as a single
// user turn.
func (a *GeminiAdapter) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.chatModel, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates returned")
	}

	return resp.Text(), nil
}

// EmbedContent calls the Gemini API to embed a single input, truncated to
// the configured dimensionality.
func (a *GeminiAdapter) EmbedContent(ctx context.Context, text string) ([]float32, error) {
	dim := a.dimensions
	resp, err := a.client.Models.EmbedContent(ctx, a.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Embeddings[0].Values, nil
}

type Config struct {
	APIKey              string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// NewClient creates a new Gemini client using defaults.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	return NewClientWithConfig(ctx, Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new Gemini client with explicit configuration.
func NewClientWithConfig(ctx context.Context, cfg Config) (*Client, error) {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	adapter, err := NewGeminiAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:        adapter,
		dimensions: dimensions,
	}, nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, domain.ErrEmptyEmbeddingInput
	}

	embedding, err := c.api.EmbedContent(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, domain.ErrWrongDimensions
	}

	return embedding, nil
}

// GenerateAnswer generates an answer for the given prompt
func (c *Client) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	answer, err := c.api.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return answer, nil
}
