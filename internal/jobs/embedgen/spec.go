package embedgen

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
)

// pipelineSpecEnv points at an external yaml file that overrides the
// embedded pipeline spec. Leave it unset to use the compiled-in defaults.
const pipelineSpecEnv = "EMBEDGEN_PIPELINE_YAML"

//go:embed embedgen.yaml
var specFS embed.FS

type PipelineSpec struct {
	Pipeline string    `yaml:"pipeline"`
	Version  int       `yaml:"version"`
	Model    ModelSpec `yaml:"model"`
	Batch    BatchSpec `yaml:"batch"`
	Retry    RetrySpec `yaml:"retry"`
}

type ModelSpec struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Dimension int    `yaml:"dimension"`
}

type BatchSpec struct {
	Size           int `yaml:"size"`
	Workers        int `yaml:"workers"`
	ReportInterval int `yaml:"report_interval"`
}

type RetrySpec struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
}

func (r RetrySpec) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// LoadSpec reads the pipeline spec, applies defaults for omitted fields,
// and validates the result.
func LoadSpec() (*PipelineSpec, error) {
	raw, err := readSpec()
	if err != nil {
		return nil, fmt.Errorf("read pipeline spec: %w", err)
	}

	var spec PipelineSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse pipeline spec: %w", err)
	}

	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func readSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(pipelineSpecEnv)); path != "" {
		return os.ReadFile(path)
	}
	return specFS.ReadFile("embedgen.yaml")
}

func (s *PipelineSpec) applyDefaults() {
	if strings.TrimSpace(s.Pipeline) == "" {
		s.Pipeline = "embedgen"
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if strings.TrimSpace(s.Model.Name) == "" {
		s.Model.Name = types.DefaultEmbeddingModelName
	}
	if strings.TrimSpace(s.Model.Version) == "" {
		s.Model.Version = types.DefaultEmbeddingModelVersion
	}
	if s.Model.Dimension == 0 {
		s.Model.Dimension = types.EmbeddingDim
	}
	if s.Batch.Size == 0 {
		s.Batch.Size = 1000
	}
	if s.Batch.Workers == 0 {
		s.Batch.Workers = 4
	}
	if s.Batch.ReportInterval == 0 {
		s.Batch.ReportInterval = 5000
	}
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = 3
	}
	if s.Retry.BaseDelayMS == 0 {
		s.Retry.BaseDelayMS = 1000
	}
}

func (s *PipelineSpec) Validate() error {
	if s.Model.Dimension != types.EmbeddingDim {
		return fmt.Errorf("pipeline spec: model dimension %d does not match the concept_embedding column width %d", s.Model.Dimension, types.EmbeddingDim)
	}
	if s.Batch.Size <= 0 {
		return fmt.Errorf("pipeline spec: batch size must be positive, got %d", s.Batch.Size)
	}
	if s.Batch.Workers <= 0 {
		return fmt.Errorf("pipeline spec: batch workers must be positive, got %d", s.Batch.Workers)
	}
	if s.Batch.ReportInterval <= 0 {
		return fmt.Errorf("pipeline spec: report interval must be positive, got %d", s.Batch.ReportInterval)
	}
	if s.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline spec: retry attempts must be positive, got %d", s.Retry.MaxAttempts)
	}
	if s.Retry.BaseDelayMS <= 0 {
		return fmt.Errorf("pipeline spec: retry base delay must be positive, got %dms", s.Retry.BaseDelayMS)
	}
	return nil
}

// RunConfig builds the default run configuration from the spec. Command
// line flags override individual fields before the runner starts.
func (s *PipelineSpec) RunConfig() Config {
	return Config{
		BatchSize:      s.Batch.Size,
		Workers:        s.Batch.Workers,
		ReportInterval: s.Batch.ReportInterval,
		MaxRetries:     s.Retry.MaxAttempts,
		RetryDelay:     s.Retry.BaseDelay(),
	}
}
