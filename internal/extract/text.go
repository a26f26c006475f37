package extract

import (
	"context"
	"fmt"
	"unicode/utf8"
)

type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("content is not valid utf-8")
	}
	return &Result{Text: string(data)}, nil
}
