package embedgen

import (
	"context"
	"fmt"
	"io"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
)

// Stats summarizes embedding coverage over the standard vocabulary.
type Stats struct {
	TotalStandard    int64                  `json:"total_standard"`
	EmbeddedStandard int64                  `json:"embedded_standard"`
	Remaining        int64                  `json:"remaining"`
	CoveragePct      float64                `json:"coverage_pct"`
	Models           []vocabrepo.ModelCount `json:"models"`
}

func CollectStats(ctx context.Context, embeddings vocabrepo.EmbeddingRepo) (*Stats, error) {
	total, err := embeddings.CountStandardConcepts(ctx, nil)
	if err != nil {
		return nil, err
	}
	embedded, err := embeddings.CountEmbeddedStandard(ctx, nil)
	if err != nil {
		return nil, err
	}
	models, err := embeddings.ModelBreakdown(ctx, nil)
	if err != nil {
		return nil, err
	}

	remaining := total - embedded
	if remaining < 0 {
		remaining = 0
	}
	pct := 100.0
	if total > 0 {
		pct = float64(embedded) / float64(total) * 100
	}

	return &Stats{
		TotalStandard:    total,
		EmbeddedStandard: embedded,
		Remaining:        remaining,
		CoveragePct:      pct,
		Models:           models,
	}, nil
}

func (s *Stats) Render(w io.Writer) {
	fmt.Fprintf(w, "Standard concepts: %d\n", s.TotalStandard)
	fmt.Fprintf(w, "Embedded:          %d (%.2f%%)\n", s.EmbeddedStandard, s.CoveragePct)
	fmt.Fprintf(w, "Remaining:         %d\n", s.Remaining)
	if len(s.Models) > 0 {
		fmt.Fprintln(w, "Models:")
		for _, m := range s.Models {
			fmt.Fprintf(w, "  %s/%s: %d\n", m.ModelName, m.ModelVersion, m.Count)
		}
	}
}
