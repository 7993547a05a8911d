// Package embedding provides a client for the Hugging Face feature-extraction
// API used to vectorize minutes chunks and queries.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mustafamaahir/Meeting-Minutes/internal/config"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type hfClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates a Hugging Face inference client. Pass nil to use a
// default HTTP client.
func NewClient(cfg config.EmbeddingConfig, httpc *http.Client) Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &hfClient{cfg: cfg, client: httpc}
}

type featureExtractionRequest struct {
	Inputs  string                   `json:"inputs"`
	Options featureExtractionOptions `json:"options"`
}

type featureExtractionOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// CreateEmbedding calls the feature-extraction pipeline and returns a single
// vector. The API answers with either a flat vector or a one-element batch
// depending on the model; both shapes are accepted.
func (c *hfClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Infof("[EmbeddingClient] calling feature-extraction api, model: %s, input_len: %d", c.cfg.Model, len(text))
	reqBody := featureExtractionRequest{
		Inputs:  text,
		Options: featureExtractionOptions{WaitForModel: true},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] failed to call feature-extraction api, error: %v", err)
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] feature-extraction api returned non-200 status: %s, body: %s", resp.Status, string(body))
		return nil, fmt.Errorf("embedding api returned non-200 status: %s", resp.Status)
	}

	vector, err := decodeVector(body)
	if err != nil {
		log.Errorf("[EmbeddingClient] failed to decode embedding response, error: %v", err)
		return nil, err
	}

	if c.cfg.Dimensions > 0 && len(vector) != c.cfg.Dimensions {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(vector), c.cfg.Dimensions)
	}

	log.Infof("[EmbeddingClient] got vector from feature-extraction api, dimensions: %d", len(vector))
	return vector, nil
}

func decodeVector(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("received empty embedding from api")
		}
		return flat, nil
	}

	var batch [][]float32
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(batch) == 0 || len(batch[0]) == 0 {
		return nil, fmt.Errorf("received empty embedding from api")
	}
	return batch[0], nil
}
