package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/ingest/document"
	"github.com/Yates-Labs/spoke/internal/prompt"
	"github.com/Yates-Labs/spoke/internal/rag"
	"github.com/Yates-Labs/spoke/internal/warehouse"
)

type mockRetriever struct {
	retrieval *rag.Retrieval
	err       error
	queries   []string
}

func (m *mockRetriever) RetrieveContext(ctx context.Context, query string) (*rag.Retrieval, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if m.retrieval == nil {
		return &rag.Retrieval{}, nil
	}
	return m.retrieval, nil
}

func unlockRetrieval() *rag.Retrieval {
	records := []rag.Record{{Text: "Use the app to unlock a bike.", Keyword: "unlock"}}
	return &rag.Retrieval{Context: rag.FormatContext(records), Records: records}
}

// axisEmbedder maps texts onto unit vectors so that chromem can store them.
type axisEmbedder struct{}

func (axisEmbedder) Embed(ctx context.Context, texts []string) ([]rag.EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, rag.ErrEmptyTexts
	}
	records := make([]rag.EmbeddingRecord, len(texts))
	for i, text := range texts {
		vec := []float32{0, 1}
		if strings.Contains(text, "helmet") {
			vec = []float32{1, 0}
		}
		records[i] = rag.EmbeddingRecord{Text: text, Embedding: vec, Index: i, Model: "axis"}
	}
	return records, nil
}

func (axisEmbedder) GetModel() string  { return "axis" }
func (axisEmbedder) GetDimension() int { return 2 }

func TestNewSession(t *testing.T) {
	s := NewSession()

	if s.Model != completion.DefaultModel {
		t.Errorf("Expected default model, got %q", s.Model)
	}
	if s.SystemPrompt != prompt.DefaultSystemPrompt {
		t.Error("Expected default persona")
	}
	if s.Ready || s.Satisfaction != SatisfactionUnset {
		t.Error("Expected a fresh session")
	}
}

func TestSession_SetModel(t *testing.T) {
	s := NewSession()

	if err := s.SetModel("mistral-large2"); err != nil {
		t.Fatalf("SetModel() error: %v", err)
	}
	if s.Model != "mistral-large2" {
		t.Errorf("Expected model to change, got %q", s.Model)
	}
	if err := s.SetModel("gpt-2"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	if s.Model != "mistral-large2" {
		t.Errorf("Rejected model must not be applied, got %q", s.Model)
	}
}

func TestSession_Feedback(t *testing.T) {
	s := NewSession()
	if err := s.RecordFeedback(SatisfactionYes); !errors.Is(err, ErrNoAnswer) {
		t.Errorf("Expected ErrNoAnswer before an answer, got %v", err)
	}

	s.Ready = true
	tests := []struct {
		sat  Satisfaction
		want string
	}{
		{SatisfactionUnset, ""},
		{SatisfactionYes, ThanksNotice},
		{SatisfactionNo, HandoffNotice},
	}
	for _, tt := range tests {
		t.Run(tt.sat.String(), func(t *testing.T) {
			if err := s.RecordFeedback(tt.sat); err != nil {
				t.Fatalf("RecordFeedback() error: %v", err)
			}
			if got := s.FeedbackMessage(); got != tt.want {
				t.Errorf("FeedbackMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSupportPipeline_Ask(t *testing.T) {
	retriever := &mockRetriever{retrieval: unlockRetrieval()}
	llm := completion.NewMockLLM("ご質問ありがとうございます。アプリで解錠できます。")
	pipeline := NewSupportPipeline(retriever, completion.NewGenerator(llm))

	s := NewSession()
	s.Satisfaction = SatisfactionNo
	answer, err := pipeline.Ask(context.Background(), s, "How do I unlock a bike?")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	if len(retriever.queries) != 1 || retriever.queries[0] != "How do I unlock a bike?" {
		t.Errorf("Expected one retrieval with the question, got %v", retriever.queries)
	}
	if llm.Calls != 1 || llm.LastModel != completion.DefaultModel {
		t.Errorf("Expected one call with the session model, got %d calls model %q", llm.Calls, llm.LastModel)
	}

	wantPrompt := prompt.BuildSupportPrompt(prompt.DefaultSystemPrompt, "How do I unlock a bike?", unlockRetrieval().Context)
	if llm.LastPrompt != wantPrompt || answer.FinalPrompt != wantPrompt {
		t.Error("Expected the assembled support prompt to be sent")
	}

	if !s.Ready || s.Answer != answer.Text || s.Query != answer.Question || s.Context != answer.Context {
		t.Errorf("Expected session to hold the answer, got %+v", s)
	}
	if s.FinalPrompt != wantPrompt || len(s.Records) != 1 {
		t.Error("Expected session to hold prompt and records")
	}
	if s.Satisfaction != SatisfactionUnset {
		t.Error("Expected satisfaction to reset for a new answer")
	}
}

func TestSupportPipeline_NoContext(t *testing.T) {
	llm := completion.NewMockLLM("")
	pipeline := NewSupportPipeline(&mockRetriever{}, completion.NewGenerator(llm))

	if _, err := pipeline.Ask(context.Background(), NewSession(), "How do I unlock a bike?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if !strings.Contains(llm.LastPrompt, prompt.NoContextMarker) {
		t.Errorf("Expected no-context marker in prompt:\n%s", llm.LastPrompt)
	}
}

func TestSupportPipeline_CustomPersonaAndModel(t *testing.T) {
	llm := completion.NewMockLLM("")
	pipeline := NewSupportPipeline(&mockRetriever{}, completion.NewGenerator(llm))

	s := NewSession()
	s.SystemPrompt = "You are terse."
	if err := s.SetModel("openai-gpt-4.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := pipeline.Ask(context.Background(), s, "Helmets?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if !strings.HasPrefix(llm.LastPrompt, "\n\nYou are terse.\n\n") {
		t.Errorf("Expected custom persona first, got %q", llm.LastPrompt[:30])
	}
	if llm.LastModel != "openai-gpt-4.1" {
		t.Errorf("Expected selected model, got %q", llm.LastModel)
	}
}

func TestSupportPipeline_EmptyQuestion(t *testing.T) {
	retriever := &mockRetriever{}
	llm := completion.NewMockLLM("")
	pipeline := NewSupportPipeline(retriever, completion.NewGenerator(llm))

	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := pipeline.Ask(context.Background(), NewSession(), q); !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("Ask(%q) error = %v, want ErrEmptyQuestion", q, err)
		}
	}
	if len(retriever.queries) != 0 || llm.Calls != 0 {
		t.Error("Expected no service calls for empty questions")
	}
}

func TestSupportPipeline_FailuresLeaveSessionUntouched(t *testing.T) {
	tests := []struct {
		name      string
		retriever *mockRetriever
		llm       *completion.MockLLM
		wantErr   error
	}{
		{
			name:      "retrieval failure",
			retriever: &mockRetriever{err: rag.ErrSearchFailed},
			llm:       completion.NewMockLLM(""),
			wantErr:   rag.ErrSearchFailed,
		},
		{
			name:      "completion failure",
			retriever: &mockRetriever{retrieval: unlockRetrieval()},
			llm:       completion.NewMockLLMWithError(errors.New("service unavailable")),
			wantErr:   completion.ErrCompletionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := NewSupportPipeline(tt.retriever, completion.NewGenerator(tt.llm))
			s := NewSession()
			s.Query, s.Answer, s.Ready = "previous", "previous answer", true
			before := *s

			answer, err := pipeline.Ask(context.Background(), s, "How do I unlock a bike?")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if answer != nil {
				t.Error("Expected no partial answer")
			}
			if s.Query != before.Query || s.Answer != before.Answer || s.FinalPrompt != before.FinalPrompt || !s.Ready {
				t.Errorf("Session changed on failure: %+v", s)
			}
		})
	}
}

func hourlyTable() warehouse.Table {
	return warehouse.Table{
		Columns: []string{warehouse.ColumnHour, warehouse.ColumnNumTrips},
		Rows:    [][]any{{"2018-06-01 08:00:00", int64(1200)}, {"2018-06-01 17:00:00", int64(1500)}},
	}
}

func TestInsightsPipeline_Ask(t *testing.T) {
	llm := completion.NewMockLLM("17時が最も混雑しています。")
	pipeline := NewInsightsPipeline(completion.NewGenerator(llm))

	insight, err := pipeline.Ask(context.Background(), "Which hours are the busiest?", hourlyTable())
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	if llm.LastModel != completion.InsightsModel || pipeline.Model() != completion.InsightsModel {
		t.Errorf("Expected insights model, got %q", llm.LastModel)
	}
	want := prompt.BuildInsightsPrompt("Which hours are the busiest?", warehouse.SerializeForPrompt(hourlyTable()))
	if llm.LastPrompt != want || insight.Prompt != want {
		t.Error("Expected the analyst template with the serialized table")
	}
	if insight.Text != "17時が最も混雑しています。" || insight.Truncated {
		t.Errorf("Unexpected insight %+v", insight)
	}
}

func TestInsightsPipeline_EmptyResponse(t *testing.T) {
	llm := completion.NewMockLLM("   ")
	pipeline := NewInsightsPipeline(completion.NewGenerator(llm))

	insight, err := pipeline.Ask(context.Background(), "Busiest hour?", hourlyTable())
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if insight.Text != InsightsEmptyNotice {
		t.Errorf("Expected empty notice, got %q", insight.Text)
	}
}

func TestInsightsPipeline_Errors(t *testing.T) {
	llm := completion.NewMockLLM("")
	pipeline := NewInsightsPipeline(completion.NewGenerator(llm))

	if _, err := pipeline.Ask(context.Background(), "  ", hourlyTable()); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
	if llm.Calls != 0 {
		t.Error("Expected no call for an empty question")
	}

	failing := NewInsightsPipeline(completion.NewGenerator(completion.NewMockLLMWithError(errors.New("boom"))))
	if _, err := failing.Ask(context.Background(), "Busiest hour?", hourlyTable()); !errors.Is(err, completion.ErrCompletionFailed) {
		t.Errorf("Expected ErrCompletionFailed, got %v", err)
	}
}

func TestInsightsPipeline_Truncated(t *testing.T) {
	tbl := warehouse.Table{Columns: []string{"LABEL"}}
	for i := 0; i < 2000; i++ {
		tbl.Rows = append(tbl.Rows, []any{strings.Repeat("x", 20)})
	}

	llm := completion.NewMockLLM("ok")
	insight, err := NewInsightsPipeline(completion.NewGenerator(llm)).Ask(context.Background(), "Summarize", tbl)
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if !insight.Truncated || !strings.HasSuffix(llm.LastPrompt, warehouse.TruncationMarker) {
		t.Error("Expected truncated table in prompt")
	}
}

func TestIndexDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.md")
	content := "# Safety\n\nWear a helmet at all times.\n\n# Fees\n\nOvertime is charged per minute.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := rag.NewChromemStore(rag.ChromemConfig{CollectionName: "index_test"}, axisEmbedder{})
	if err != nil {
		t.Fatalf("NewChromemStore() error: %v", err)
	}
	defer store.Close()

	n, err := IndexDocument(context.Background(), path, axisEmbedder{}, store, document.DefaultChunkOptions(), rag.DefaultIndexOptions())
	if err != nil {
		t.Fatalf("IndexDocument() error: %v", err)
	}
	if n != 2 || store.Count() != 2 {
		t.Fatalf("Expected 2 chunks indexed, got %d (store has %d)", n, store.Count())
	}

	retriever, err := rag.NewRetriever(store, 1)
	if err != nil {
		t.Fatal(err)
	}
	retrieval, err := retriever.RetrieveContext(context.Background(), "helmet rules")
	if err != nil {
		t.Fatalf("RetrieveContext() error: %v", err)
	}
	if !strings.Contains(retrieval.Context, "keyword=Safety") {
		t.Errorf("Expected the safety section, got %q", retrieval.Context)
	}
}

func TestIndexDocument_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.rtf")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := IndexDocument(context.Background(), path, axisEmbedder{}, nil, document.DefaultChunkOptions(), rag.DefaultIndexOptions())
	if !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}
