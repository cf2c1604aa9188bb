package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Yates-Labs/spoke/internal/rag"
)

// Parse extracts a policy document and splits it into passages ready for indexing.
// PDF pages become zero-based page indexes; markdown headings become keywords.
func Parse(path string, opts ChunkOptions) ([]rag.Passage, error) {
	var (
		sections []section
		err      error
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		sections, err = parsePDF(path)
	case ".docx":
		sections, err = parseDOCX(path)
	case ".md", ".markdown":
		sections, err = parseMarkdownFile(path)
	case ".txt":
		sections, err = parseText(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	out := passages(sections, opts)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	log.Debug().Str("path", path).Int("sections", len(sections)).Int("passages", len(out)).Msg("parsed document")
	return out, nil
}

func parsePDF(path string) ([]section, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sections []section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		idx := i - 1
		sections = append(sections, section{text: pageText, pageIndex: &idx})
	}
	return sections, nil
}

var (
	xmlParagraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag          = regexp.MustCompile(`<[^>]+>`)
)

func parseDOCX(path string) ([]section, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return []section{{text: stripWordXML(r.Editable().GetContent())}}, nil
}

// stripWordXML reduces document.xml to its text, one line per paragraph.
func stripWordXML(content string) string {
	content = xmlParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func parseMarkdownFile(path string) ([]section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseMarkdown(data), nil
}

// parseMarkdown groups leaf block text under the nearest preceding heading.
func parseMarkdown(src []byte) []section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		sections []section
		keyword  string
		body     strings.Builder
	)
	flush := func() {
		if strings.TrimSpace(body.String()) != "" {
			sections = append(sections, section{text: body.String(), keyword: keyword})
		}
		body.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			keyword = inlineText(heading, src)
			return ast.WalkSkipChildren, nil
		}
		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				body.Write(seg.Value(src))
			}
			body.WriteString("\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return sections
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func parseText(path string) ([]section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []section{{text: string(data)}}, nil
}
