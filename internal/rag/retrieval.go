package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultTopK bounds how many policy excerpts are retrieved per question.
const DefaultTopK = 4

// contextSeparator sits between snippets in the assembled context block.
const contextSeparator = "\n\n---\n\n"

// Retriever provides context retrieval for support questions.
type Retriever struct {
	service SearchService
	topK    int
}

// Retrieval is the outcome of one context lookup.
type Retrieval struct {
	// Context is the formatted context block, empty when nothing matched
	Context string

	// Records are the raw search hits in service order
	Records []Record
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(service SearchService, topK int) (*Retriever, error) {
	if service == nil {
		return nil, fmt.Errorf("search service cannot be nil")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	return &Retriever{
		service: service,
		topK:    topK,
	}, nil
}

// TopK returns the retrieval bound.
func (r *Retriever) TopK() int {
	return r.topK
}

// RetrieveContext runs one search for query and formats the hits.
// Zero hits is not an error; the returned context is then empty.
func (r *Retriever) RetrieveContext(ctx context.Context, query string) (*Retrieval, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	records, err := r.service.Search(ctx, SearchRequest{
		Query:   query,
		Columns: DefaultColumns,
		Limit:   r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	if len(records) > r.topK {
		records = records[:r.topK]
	}

	log.Debug().Int("records", len(records)).Int("top_k", r.topK).Msg("retrieved policy context")

	return &Retrieval{
		Context: FormatContext(records),
		Records: records,
	}, nil
}

// Header returns the metadata header for the record, or "" when it carries
// neither a page index nor a keyword.
func (r Record) Header() string {
	var parts []string
	if r.PageIndex != nil {
		parts = append(parts, "page_index="+strconv.Itoa(*r.PageIndex))
	}
	if r.Keyword != "" {
		parts = append(parts, "keyword="+r.Keyword)
	}
	return strings.Join(parts, " | ")
}

// FormatContext joins records into a single context block, preserving order.
func FormatContext(records []Record) string {
	snippets := make([]string, 0, len(records))
	for _, rec := range records {
		if header := rec.Header(); header != "" {
			snippets = append(snippets, "["+header+"]\n"+rec.Text)
		} else {
			snippets = append(snippets, rec.Text)
		}
	}
	return strings.Join(snippets, contextSeparator)
}
