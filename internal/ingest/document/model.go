package document

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document contains no text")
)

// ChunkOptions controls how extracted text is split into passages.
type ChunkOptions struct {
	// Size is the maximum passage length in runes
	Size int

	// Overlap is how many runes consecutive passages share
	Overlap int
}

// DefaultChunkOptions returns the chunking used for the terms of use.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		Size:    800,
		Overlap: 100,
	}
}

// normalized clamps nonsensical values back to usable ones.
func (o ChunkOptions) normalized() ChunkOptions {
	def := DefaultChunkOptions()
	if o.Size <= 0 {
		o.Size = def.Size
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 2
	}
	return o
}

// section is a run of text sharing one page index and keyword.
type section struct {
	text      string
	pageIndex *int
	keyword   string
}
