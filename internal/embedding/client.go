package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/ai"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

type Config struct {
	Dimensions    int
	MaxInputChars int
	BatchSize     int
	MaxAttempts   int
	BaseDelay     time.Duration
}

// Client wraps a model-bound embedder with the guarantees the pipeline
// relies on: inputs are rejected when empty and truncated to a safe length,
// transient failures are retried with exponential backoff, and every
// returned vector is validated before anyone stores it.
type Client struct {
	embedder ai.IEmbedder
	cfg      Config
}

func NewClient(embedder ai.IEmbedder, cfg Config) *Client {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 32000
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	return &Client{embedder: embedder, cfg: cfg}
}

func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

func (c *Client) ModelName() string {
	return c.embedder.ModelName()
}

func (c *Client) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	input, err := c.prepareInput(text)
	if err != nil {
		return nil, err
	}
	var vector []float32
	err = Retry(ctx, c.cfg.MaxAttempts, c.cfg.BaseDelay, func() error {
		res, err := c.embedder.Embed(ctx, input, taskType)
		if err != nil {
			return err
		}
		vector = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := c.validateVector(vector); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vector, nil
}

// EmbedBatch embeds texts in input order, splitting the work into
// backend-safe sub-batches. Each sub-batch is retried independently so a
// transient failure does not re-embed items that already succeeded.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(texts))
	for i, text := range texts {
		input, err := c.prepareInput(text)
		if err != nil {
			return nil, fmt.Errorf("embed batch item %d: %w", i, err)
		}
		inputs = append(inputs, input)
	}
	logger := logutil.GetLogger(ctx)
	vectors := make([][]float32, 0, len(inputs))
	for offset := 0; offset < len(inputs); offset += c.cfg.BatchSize {
		end := offset + c.cfg.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		sub := inputs[offset:end]
		var res [][]float32
		err := Retry(ctx, c.cfg.MaxAttempts, c.cfg.BaseDelay, func() error {
			out, err := c.embedder.EmbedBatch(ctx, sub, taskType)
			if err != nil {
				return err
			}
			if len(out) != len(sub) {
				return fmt.Errorf("backend returned %d vectors for %d inputs", len(out), len(sub))
			}
			res = out
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", offset, end, err)
		}
		for i, vec := range res {
			if err := c.validateVector(vec); err != nil {
				return nil, fmt.Errorf("embed batch item %d: %w", offset+i, err)
			}
		}
		vectors = append(vectors, res...)
		logger.Debug("embedded sub-batch", zap.Int("offset", offset), zap.Int("count", len(sub)))
	}
	return vectors, nil
}

func (c *Client) prepareInput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty input: %w", appErr.ErrInvalid)
	}
	runes := []rune(trimmed)
	if len(runes) > c.cfg.MaxInputChars {
		trimmed = string(runes[:c.cfg.MaxInputChars])
	}
	return trimmed, nil
}

// validateVector enforces the embedding invariants: exact dimensionality,
// finite components, and at least one non-zero component. A bad vector is a
// hard failure, never coerced.
func (c *Client) validateVector(vec []float32) error {
	if len(vec) != c.cfg.Dimensions {
		return fmt.Errorf("vector has %d dimensions, want %d: %w", len(vec), c.cfg.Dimensions, appErr.ErrInvalid)
	}
	allZero := true
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("vector component %d is not finite: %w", i, appErr.ErrInvalid)
		}
		if v != 0 {
			allZero = false
		}
	}
	if allZero {
		return fmt.Errorf("vector is all-zero: %w", appErr.ErrInvalid)
	}
	return nil
}
