package chunker

import "strings"

// CombineSmallChunks merges runs of consecutive chunks whose combined token
// count stays below minTokens. Merged content and offsets are re-derived
// from the first and last member of each group against the source text, so
// overlap between members is not duplicated.
func (c *Chunker) CombineSmallChunks(text string, chunks []Chunk, minTokens int) []Chunk {
	if minTokens <= 0 || len(chunks) < 2 {
		return chunks
	}
	runes := []rune(text)
	var out []Chunk
	i := 0
	for i < len(chunks) {
		first := chunks[i]
		last := first
		combined := first.TokenCount
		j := i + 1
		for j < len(chunks) && combined+chunks[j].TokenCount < minTokens {
			combined += chunks[j].TokenCount
			last = chunks[j]
			j++
		}
		if j == i+1 {
			out = append(out, first)
			i = j
			continue
		}
		merged := string(runes[first.StartOffset:last.EndOffset])
		out = append(out, Chunk{
			Content:     strings.TrimSpace(merged),
			StartOffset: first.StartOffset,
			EndOffset:   last.EndOffset,
			TokenCount:  c.counter.CountTokens(merged),
		})
		i = j
	}
	return stampTotals(out)
}
