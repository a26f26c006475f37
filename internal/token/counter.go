package token

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// heuristicCharsPerToken is used when no BPE encoding is available. Roughly
// four characters per token holds for English prose.
const heuristicCharsPerToken = 4

// Counter provides the single tokenization scheme shared by chunking,
// retrieval budgeting and embedding truncation. Sizing must never fail, so
// the counter degrades to a character heuristic when the encoding cannot be
// loaded.
type Counter struct {
	mu  sync.RWMutex
	tke *tiktoken.Tiktoken
}

func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = defaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		tke, _ = tiktoken.GetEncoding(defaultEncoding)
	}
	return &Counter{tke: tke}
}

func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	c.mu.RLock()
	tke := c.tke
	c.mu.RUnlock()
	if tke == nil {
		return heuristicCount(text)
	}
	return len(tke.Encode(text, nil, nil))
}

// TruncateToTokenLimit returns a prefix of text holding at most maxTokens
// tokens. The prefix is produced by decoding encoded tokens, so it never
// cuts through a multi-byte sequence.
func (c *Counter) TruncateToTokenLimit(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	c.mu.RLock()
	tke := c.tke
	c.mu.RUnlock()
	if tke == nil {
		return heuristicTruncate(text, maxTokens)
	}
	tokens := tke.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return tke.Decode(tokens[:maxTokens])
}

func heuristicCount(text string) int {
	runes := len([]rune(text))
	if runes == 0 {
		return 0
	}
	count := runes / heuristicCharsPerToken
	if count == 0 {
		return 1
	}
	return count
}

func heuristicTruncate(text string, maxTokens int) string {
	runes := []rune(text)
	limit := maxTokens * heuristicCharsPerToken
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit]), " ")
}
