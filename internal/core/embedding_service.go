package core

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"syntrise.com/core/internal/config"
)

// maxEmbeddingInputChars caps the text sent to the embedding model; longer
// inputs are truncated, matching the provider's input limit.
const maxEmbeddingInputChars = 30000

// EmbeddingService converts text into fixed-length vectors via the remote
// embedding model.
type EmbeddingService struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewEmbeddingService() *EmbeddingService {
	clientConfig := openai.DefaultConfig(config.AppConfig.OpenAIAPIKey)
	if config.AppConfig.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.AppConfig.OpenAIBaseURL
	}

	return &EmbeddingService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(config.AppConfig.EmbeddingModel),
	}
}

// Embed returns the embedding vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{truncateForEmbedding(text)},
		Model:          s.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data received")
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch returns one embedding per input text, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncateForEmbedding(t)
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          truncated,
		Model:          s.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("batch embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The provider may return items out of order; Index is authoritative.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	embeddings := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		embeddings[i] = item.Embedding
	}
	return embeddings, nil
}

func truncateForEmbedding(text string) string {
	if len(text) > maxEmbeddingInputChars {
		return text[:maxEmbeddingInputChars]
	}
	return text
}
