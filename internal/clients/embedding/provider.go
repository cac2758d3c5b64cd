package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// ErrUnavailable marks every failure to obtain a vector from the embedding
// backend, so callers can tell "search backend unavailable" apart from store
// errors and fall back to another strategy.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Provider is the process-wide embedding handle for the request path. The
// underlying client is built lazily on first use, exactly once, and shared
// read-only by concurrent callers afterwards. Construction failures are
// remembered, so a misconfigured backend degrades semantic search without
// taking the process down.
type Provider struct {
	log *logger.Logger

	once   sync.Once
	client Client
	err    error
}

func NewProvider(baseLog *logger.Logger) *Provider {
	return &Provider{log: baseLog.With("service", "EmbeddingProvider")}
}

func (p *Provider) init() (Client, error) {
	p.once.Do(func() {
		p.client, p.err = NewClient(p.log)
		if p.err != nil {
			p.log.Warn("embedding client init failed", "error", p.err)
		}
	})
	return p.client, p.err
}

// Embed resolves the lazy client and runs one embedding call. Failures are
// wrapped in ErrUnavailable except caller cancellation, which passes through
// untouched. The request path never retries.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c, err := p.init()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	vecs, err := c.Embed(ctx, texts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return vecs, nil
}
