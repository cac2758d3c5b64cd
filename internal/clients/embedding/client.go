package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// Client talks to an OpenAI-compatible /v1/embeddings endpoint, typically a
// self-hosted sentence-transformer server. Vectors come back in input order
// and are validated against the configured dimension.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
	ModelVersion() string
	Dimension() int
}

// Options configures a Client explicitly; the batch pipeline builds one from
// its yaml spec while the server uses the env-driven NewClient.
type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	ModelVersion   string
	Dimension      int
	TimeoutSeconds int
	MaxRetries     int
}

type client struct {
	log          *logger.Logger
	baseURL      string
	apiKey       string
	model        string
	modelVersion string
	dim          int
	httpClient   *http.Client

	maxRetries   int
	retryBackoff time.Duration
}

// NewClient builds a Client from EMBED_* environment variables. EMBED_BASE_URL
// is required; model defaults match the embedding pipeline defaults.
func NewClient(log *logger.Logger) (Client, error) {
	opts := Options{
		BaseURL: strings.TrimSpace(os.Getenv("EMBED_BASE_URL")),
		APIKey:  strings.TrimSpace(os.Getenv("EMBED_API_KEY")),
		Model:   strings.TrimSpace(os.Getenv("EMBED_MODEL")),
	}
	if v := strings.TrimSpace(os.Getenv("EMBED_MODEL_VERSION")); v != "" {
		opts.ModelVersion = v
	}
	if v := os.Getenv("EMBED_DIM"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			opts.Dimension = parsed
		}
	}
	if v := os.Getenv("EMBED_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			opts.TimeoutSeconds = parsed
		}
	}
	if v := os.Getenv("EMBED_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			opts.MaxRetries = parsed
		}
	}
	return NewClientWithOptions(log, opts)
}

func NewClientWithOptions(log *logger.Logger, opts Options) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("missing EMBED_BASE_URL")
	}
	if opts.Model == "" {
		opts.Model = types.DefaultEmbeddingModelName
	}
	if opts.ModelVersion == "" {
		opts.ModelVersion = types.DefaultEmbeddingModelVersion
	}
	if opts.Dimension <= 0 {
		opts.Dimension = types.EmbeddingDim
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 30
	}

	return &client{
		log:          log.With("service", "EmbeddingClient"),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		model:        opts.Model,
		modelVersion: opts.ModelVersion,
		dim:          opts.Dimension,
		httpClient:   &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second},
		maxRetries:   opts.MaxRetries,
		retryBackoff: 1 * time.Second,
	}, nil
}

func (c *client) Model() string        { return c.model }
func (c *client) ModelVersion() string { return c.modelVersion }
func (c *client) Dimension() int       { return c.dim }

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("embeddings http %d: %s", e.StatusCode, e.Body)
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// do runs the request with up to maxRetries extra attempts. maxRetries
// defaults to zero so request-path callers never retry; the batch pipeline
// keeps its own backoff around whole batches instead.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := c.retryBackoff

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("embeddings decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}
		if attempt == c.maxRetries {
			return err
		}

		c.log.Warn("embeddings request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{
		Model: c.model,
		Input: clean,
	}

	var resp embeddingsResponse
	if err := c.do(ctx, "POST", "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(clean) {
		return nil, fmt.Errorf("embeddings response: got %d vectors for %d inputs", len(resp.Data), len(clean))
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embeddings response: index %d out of range", d.Index)
		}
		if len(d.Embedding) != c.dim {
			return nil, fmt.Errorf("embeddings response: dimension %d, want %d", len(d.Embedding), c.dim)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("embeddings response: missing vector for index %d", i)
		}
	}
	return out, nil
}
