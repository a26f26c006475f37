package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

// Result is the raw text pulled out of an uploaded file.
type Result struct {
	Text      string
	WordCount int
	CharCount int
}

// ParseError means an extractor ran but produced no usable text. It carries
// the declared file type so the caller can report something actionable.
type ParseError struct {
	FileType string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.FileType, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}

type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	r.Register(textExtractor{}, "text/plain", "txt", "text")
	r.Register(markdownExtractor{}, "text/markdown", "md", "markdown")
	return r
}

func (r *Registry) Register(e Extractor, types ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		key := normalizeType(t)
		if key == "" || e == nil {
			continue
		}
		r.extractors[key] = e
	}
}

func (r *Registry) Supported(declaredType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[normalizeType(declaredType)]
	return ok
}

// Extract runs the extractor registered for declaredType. A missing
// extractor or an empty extraction both fail before anything downstream
// runs.
func (r *Registry) Extract(ctx context.Context, data []byte, declaredType string) (*Result, error) {
	r.mu.RLock()
	e := r.extractors[normalizeType(declaredType)]
	r.mu.RUnlock()
	if e == nil {
		return nil, &ParseError{FileType: declaredType, Err: appErr.ErrUnsupportedType}
	}
	res, err := e.Extract(ctx, data)
	if err != nil {
		return nil, &ParseError{FileType: declaredType, Err: err}
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, &ParseError{FileType: declaredType, Err: fmt.Errorf("no usable text")}
	}
	res.WordCount = len(strings.Fields(res.Text))
	res.CharCount = utf8.RuneCountInString(res.Text)
	return res, nil
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.TrimPrefix(t, ".")
	if idx := strings.Index(t, ";"); idx >= 0 {
		t = strings.TrimSpace(t[:idx])
	}
	return t
}
