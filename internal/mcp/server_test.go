package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindspark-app/mindspark/internal/kvstore"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/llm"
	"github.com/mindspark-app/mindspark/internal/study"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// mockProvider answers schema requests with cards and everything else
// with text.
type mockProvider struct {
	text  string
	cards string
	err   error
	last  llm.Message
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.last = req.Messages[len(req.Messages)-1]
	if m.err != nil {
		return nil, m.err
	}
	content := m.text
	if req.Schema != nil {
		content = m.cards
	}
	return &llm.CompletionResponse{Content: content, Model: "mock-1"}, nil
}

func setupTestServer(t *testing.T) (*Server, *mockProvider) {
	t.Helper()
	p := &mockProvider{
		text:  "A short summary.",
		cards: `{"flashcards":[{"question":"What is H2O?","answer":"Water"}]}`,
	}
	lib := library.NewStore(kvstore.NewMemory())
	return NewServer(study.New(p), lib), p
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestToolDefinitions(t *testing.T) {
	if runTaskTool.Name != "run_task" {
		t.Errorf("runTaskTool name = %q", runTaskTool.Name)
	}
	if generateFlashcardsTool.Name != "generate_flashcards" {
		t.Errorf("generateFlashcardsTool name = %q", generateFlashcardsTool.Name)
	}
	if listSavedWorkTool.Name != "list_saved_work" {
		t.Errorf("listSavedWorkTool name = %q", listSavedWorkTool.Name)
	}
	if getSavedWorkTool.Name != "get_saved_work" {
		t.Errorf("getSavedWorkTool name = %q", getSavedWorkTool.Name)
	}

	for _, k := range taskKinds() {
		if k == string(study.KindChat) {
			t.Error("run_task should not offer chat")
		}
	}
	if len(taskKinds()) != len(study.Kinds)-1 {
		t.Errorf("taskKinds() = %v", taskKinds())
	}
}

func TestNewServerWithoutAssistant(t *testing.T) {
	s := NewServer(nil, library.NewStore(kvstore.NewMemory()))
	if s.mcp == nil {
		t.Fatal("expected MCP server to be created")
	}
}

func TestHandleRunTask(t *testing.T) {
	s, p := setupTestServer(t)
	ctx := context.Background()

	result, err := s.handleRunTask(ctx, callTool(map[string]any{
		"kind":  "summarize",
		"input": "Photosynthesis converts light into chemical energy.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if got := resultText(t, result); got != "A short summary." {
		t.Errorf("text = %q", got)
	}
	if !strings.Contains(p.last.Content, "Photosynthesis") {
		t.Errorf("prompt missing input: %q", p.last.Content)
	}
	if n := len(s.library.List(ctx)); n != 0 {
		t.Errorf("expected nothing saved, got %d", n)
	}
}

func TestHandleRunTaskSave(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	result, err := s.handleRunTask(ctx, callTool(map[string]any{
		"kind":  "notes",
		"input": "Cell biology lecture",
		"save":  true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	items := s.library.List(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 saved item, got %d", len(items))
	}
	if items[0].Type != "Notes" {
		t.Errorf("type = %q", items[0].Type)
	}
	if !strings.Contains(resultText(t, result), "Saved as "+items[0].ID) {
		t.Errorf("result should name the saved id: %q", resultText(t, result))
	}
}

func TestHandleRunTaskTranslateNeedsLanguage(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleRunTask(context.Background(), callTool(map[string]any{
		"kind":  "translate",
		"input": "Good morning",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result without a language")
	}
}

func TestHandleRunTaskUnknownKind(t *testing.T) {
	s, _ := setupTestServer(t)

	for _, kind := range []string{"poem", "chat"} {
		result, err := s.handleRunTask(context.Background(), callTool(map[string]any{
			"kind":  kind,
			"input": "hello",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("kind %q: expected error result", kind)
		}
	}
}

func TestHandleRunTaskMissingKind(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleRunTask(context.Background(), callTool(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing kind")
	}
}

func TestHandleRunTaskImage(t *testing.T) {
	s, p := setupTestServer(t)
	path := filepath.Join(t.TempDir(), "board.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := s.handleRunTask(context.Background(), callTool(map[string]any{
		"kind":       "analyze_image",
		"image_path": path,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if len(p.last.Images) != 1 {
		t.Fatalf("expected 1 image sent, got %d", len(p.last.Images))
	}
	if p.last.Images[0].MIMEType != "image/png" {
		t.Errorf("mime = %q", p.last.Images[0].MIMEType)
	}
}

func TestHandleRunTaskImageNotFound(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleRunTask(context.Background(), callTool(map[string]any{
		"kind":       "analyze_image",
		"image_path": filepath.Join(t.TempDir(), "missing.png"),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing image")
	}
}

func TestHandleRunTaskProviderError(t *testing.T) {
	s, p := setupTestServer(t)
	p.err = errors.New("connection reset")

	result, err := s.handleRunTask(context.Background(), callTool(map[string]any{
		"kind":  "proofread",
		"input": "Their going home.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != study.CommunicationMessage {
		t.Errorf("text = %q, want %q", got, study.CommunicationMessage)
	}
}

func TestHandleGenerateFlashcards(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleGenerateFlashcards(context.Background(), callTool(map[string]any{
		"input": "Water is H2O.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Q: What is H2O?") || !strings.Contains(text, "A: Water") {
		t.Errorf("unexpected flashcards text: %q", text)
	}
}

func TestHandleGenerateFlashcardsParseFailure(t *testing.T) {
	s, p := setupTestServer(t)
	p.cards = "not json"

	result, err := s.handleGenerateFlashcards(context.Background(), callTool(map[string]any{
		"input": "Water is H2O.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != study.FlashcardErrorMessage {
		t.Errorf("text = %q, want %q", got, study.FlashcardErrorMessage)
	}
}

func TestHandleListSavedWork(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	result, err := s.handleListSavedWork(ctx, callTool(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resultText(t, result) != "No saved work found." {
		t.Errorf("empty library text = %q", resultText(t, result))
	}

	for _, n := range []library.NewItem{
		{Type: "Summary", OriginalInput: "Mitosis overview", ResultText: "Cells divide."},
		{Type: "Notes", OriginalInput: "French revolution", ResultText: "1789 onwards."},
	} {
		if _, err := s.library.Save(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	result, err = s.handleListSavedWork(ctx, callTool(map[string]any{"type": "Notes"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "French revolution") || strings.Contains(text, "Mitosis") {
		t.Errorf("type filter not applied: %q", text)
	}

	result, err = s.handleListSavedWork(ctx, callTool(map[string]any{"query": "mitosis"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Mitosis overview") {
		t.Errorf("query not applied: %q", resultText(t, result))
	}
}

func TestHandleGetSavedWork(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	item, err := s.library.Save(ctx, library.NewItem{
		Type:          "Flashcards",
		OriginalInput: "Chemistry basics",
		ResultText:    "1. Q: What is H2O?\n   A: Water\n",
		Flashcards:    []library.Flashcard{{Question: "What is H2O?", Answer: "Water"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.handleGetSavedWork(ctx, callTool(map[string]any{"id": item.ID}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	for _, want := range []string{"# Chemistry basics", "Type: Flashcards", "## Flashcards", "## Original input"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestHandleGetSavedWorkNotFound(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleGetSavedWork(context.Background(), callTool(map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown id")
	}

	result, err = s.handleGetSavedWork(context.Background(), callTool(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing id")
	}
}
