package document

import (
	"strings"

	"github.com/Yates-Labs/spoke/internal/rag"
)

// splitRunes cuts text into overlapping windows of at most size runes.
// Windows are trimmed and blank ones dropped.
func splitRunes(text string, opts ChunkOptions) []string {
	opts = opts.normalized()

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= opts.Size {
		return []string{string(runes)}
	}

	step := opts.Size - opts.Overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+opts.Size, len(runes))
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// passages chunks every section, carrying its metadata onto each chunk.
func passages(sections []section, opts ChunkOptions) []rag.Passage {
	var out []rag.Passage
	for _, s := range sections {
		for _, chunk := range splitRunes(s.text, opts) {
			out = append(out, rag.Passage{
				Text:      chunk,
				PageIndex: s.pageIndex,
				Keyword:   s.keyword,
			})
		}
	}
	return out
}
