package embed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/cinegraph/backend/internal/util"
)

// Client computes plot embeddings through an OpenAI-compatible embeddings
// endpoint. It satisfies the ingestion driver's Embedder interface.
//
// A Client should be created using NewClient.
type Client struct {
	api        openai.Client
	model      string
	timeoutMin int
}

// NewClientParams defines the configuration for creating a Client. BaseURL
// may point at any OpenAI-compatible server; TimeoutMinutes defaults to 1.
type NewClientParams struct {
	Model          string
	BaseURL        string
	APIKey         string
	TimeoutMinutes int
}

func NewClient(params NewClientParams) (*Client, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	opts := []option.RequestOption{}
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	if params.APIKey != "" {
		opts = append(opts, option.WithAPIKey(params.APIKey))
	}

	timeoutMin := params.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = 1
	}

	return &Client{
		api:        openai.NewClient(opts...),
		model:      params.Model,
		timeoutMin: timeoutMin,
	}, nil
}

// EmbedText returns the embedding vector for one piece of text. Blank input
// yields a nil vector without a request.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	response, err := util.RetryWithContext(rCtx, 3, func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		return c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
			Model: c.model,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	return response.Data[0].Embedding, nil
}
