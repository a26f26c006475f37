package chunker

import (
	"strings"

	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

// TokenCounter is the sizing dependency; all windows are measured with the
// same counter used elsewhere in the pipeline.
type TokenCounter interface {
	CountTokens(text string) int
}

// Options controls the windowing pass. Sizes are in tokens; Separators are
// tried in priority order when seeking a natural cut point.
type Options struct {
	ChunkSize    int
	Overlap      int
	MinChunkSize int
	Separators   []string
}

// Chunk is a draft produced by the windowing pass. Offsets are rune offsets
// into the cleaned source text; Content is the trimmed window.
type Chunk struct {
	Content     string
	Index       int
	TotalChunks int
	StartOffset int
	EndOffset   int
	TokenCount  int
}

type Chunker struct {
	counter TokenCounter
	opts    Options
}

func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", "。", " "}
}

func New(counter TokenCounter, opts Options) *Chunker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 800
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	if opts.Overlap >= opts.ChunkSize {
		opts.Overlap = opts.ChunkSize / 4
	}
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = 80
	}
	if opts.MinChunkSize > opts.ChunkSize {
		opts.MinChunkSize = opts.ChunkSize
	}
	if len(opts.Separators) == 0 {
		opts.Separators = DefaultSeparators()
	}
	return &Chunker{counter: counter, opts: opts}
}

// ChunkText splits cleaned text into overlapping, boundary-aware windows of
// at most ChunkSize tokens. The final chunk is always kept even when it is
// smaller than MinChunkSize so no trailing text is lost.
func (c *Chunker) ChunkText(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErr.ErrEmptyDocument
	}
	runes := []rune(text)
	totalTokens := c.counter.CountTokens(text)
	if totalTokens <= c.opts.ChunkSize {
		return stampTotals([]Chunk{{
			Content:     strings.TrimSpace(text),
			StartOffset: 0,
			EndOffset:   len(runes),
			TokenCount:  totalTokens,
		}}), nil
	}

	charsPerToken := len(runes) / totalTokens
	if charsPerToken < 1 {
		charsPerToken = 1
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := c.fitWindow(runes, start, charsPerToken)
		if end < len(runes) {
			if cut := c.seekSeparator(runes, start, end, charsPerToken); cut > start {
				end = cut
			}
		}
		window := string(runes[start:end])
		content := strings.TrimSpace(window)
		tokens := c.counter.CountTokens(window)
		final := end >= len(runes)
		if content != "" && (tokens >= c.opts.MinChunkSize || final) {
			chunks = append(chunks, Chunk{
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				TokenCount:  tokens,
			})
		}
		if final {
			break
		}
		next := end - c.opts.Overlap*charsPerToken
		if next < start {
			next = start
		}
		next = c.snapOverlapStart(runes, next, end)
		if next <= start {
			// forced progress so a pathological separator layout cannot
			// loop forever
			next = end
		}
		start = next
	}
	return stampTotals(chunks), nil
}

// fitWindow estimates an end offset from the character-per-token ratio and
// then re-measures, contracting or expanding until the window token count
// lands at or just under ChunkSize.
func (c *Chunker) fitWindow(runes []rune, start, charsPerToken int) int {
	end := start + c.opts.ChunkSize*charsPerToken
	if end > len(runes) {
		end = len(runes)
	}
	for i := 0; i < 32; i++ {
		tokens := c.counter.CountTokens(string(runes[start:end]))
		if tokens > c.opts.ChunkSize {
			shrink := (tokens - c.opts.ChunkSize) * charsPerToken
			if shrink < 1 {
				shrink = 1
			}
			end -= shrink
			if end <= start {
				return start + 1
			}
			continue
		}
		if tokens < c.opts.ChunkSize && end < len(runes) {
			grow := (c.opts.ChunkSize - tokens) * charsPerToken
			if grow < 1 {
				grow = 1
			}
			end += grow
			if end > len(runes) {
				end = len(runes)
			}
			continue
		}
		break
	}
	// a final safety contraction in case the loop capped out while still
	// over budget
	for end > start+1 && c.counter.CountTokens(string(runes[start:end])) > c.opts.ChunkSize {
		end--
	}
	return end
}

// seekSeparator searches backward from end for the highest-priority
// separator inside the window and cuts just after it. Cuts that would leave
// less than a minimum-sized chunk are skipped so the pass keeps making
// useful progress.
func (c *Chunker) seekSeparator(runes []rune, start, end, charsPerToken int) int {
	floor := start + c.opts.MinChunkSize*charsPerToken
	if floor >= end {
		return end
	}
	for _, sep := range c.opts.Separators {
		sepRunes := []rune(sep)
		if idx := lastIndexRunes(runes, sepRunes, floor, end); idx >= 0 {
			return idx + len(sepRunes)
		}
	}
	return end
}

// snapOverlapStart moves the overlap seam forward to the first separator
// boundary so the next chunk does not begin mid-word.
func (c *Chunker) snapOverlapStart(runes []rune, from, end int) int {
	for _, sep := range c.opts.Separators {
		sepRunes := []rune(sep)
		if idx := indexRunes(runes, sepRunes, from, end); idx >= 0 {
			snapped := idx + len(sepRunes)
			if snapped < end {
				return snapped
			}
		}
	}
	return from
}

func stampTotals(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

func lastIndexRunes(runes, sep []rune, lo, hi int) int {
	if len(sep) == 0 || hi-lo < len(sep) {
		return -1
	}
	for i := hi - len(sep); i >= lo; i-- {
		if matchRunes(runes, sep, i) {
			return i
		}
	}
	return -1
}

func indexRunes(runes, sep []rune, lo, hi int) int {
	if len(sep) == 0 {
		return -1
	}
	for i := lo; i+len(sep) <= hi; i++ {
		if matchRunes(runes, sep, i) {
			return i
		}
	}
	return -1
}

func matchRunes(runes, sep []rune, at int) bool {
	for j := range sep {
		if runes[at+j] != sep[j] {
			return false
		}
	}
	return true
}
