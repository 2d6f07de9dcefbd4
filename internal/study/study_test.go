package study

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/llm"
)

// stubProvider answers with a function of the request.
type stubProvider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	reply func(llm.CompletionRequest) (string, error)
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := s.reply(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: text, InputTokens: 10, OutputTokens: 5, Model: "gemini-2.5-flash"}, nil
}

func (s *stubProvider) lastPrompt() llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.calls[len(s.calls)-1].Messages
	return msgs[len(msgs)-1]
}

func fixed(text string) *stubProvider {
	return &stubProvider{reply: func(llm.CompletionRequest) (string, error) { return text, nil }}
}

func TestTranslateHelloToSpanish(t *testing.T) {
	p := fixed("Hola")
	a := New(p, WithModel("gemini-2.5-flash"))

	res, err := a.Run(context.Background(), Task{Kind: KindTranslate, Input: "Hello", Language: "Spanish"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text == "" || res.Text == "Hello" {
		t.Errorf("expected a translation distinct from the input, got %q", res.Text)
	}
	if res.Label != "Translation" {
		t.Errorf("label = %q", res.Label)
	}
	prompt := p.lastPrompt().Content
	if !strings.Contains(prompt, "Spanish") || !strings.Contains(prompt, `"Hello"`) {
		t.Errorf("prompt should name the language and quote the input: %q", prompt)
	}
	if res.Usage.InputTokens != 10 || res.Usage.CostUSD <= 0 {
		t.Errorf("unexpected usage %+v", res.Usage)
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name  string
		task  Task
		prefs Preferences
		want  string
	}{
		{"summarize", Task{Kind: KindSummarize, Input: "text"}, Preferences{},
			"Summarize the following text:\n\n\"text\""},
		{"summarize medium", Task{Kind: KindSummarize, Input: "text"}, Preferences{SummaryLength: "medium"},
			"Summarize the following text:\n\n\"text\""},
		{"summarize short", Task{Kind: KindSummarize, Input: "text"}, Preferences{SummaryLength: "short"},
			"Summarize the following text:\n\n\"text\"\n\nKeep the summary short: no more than three sentences."},
		{"notes", Task{Kind: KindNotes, Input: "text"}, Preferences{},
			"Generate detailed notes from the following text:\n\n\"text\""},
		{"notes outline", Task{Kind: KindNotes, Input: "text"}, Preferences{NoteStyle: "outline"},
			"Generate detailed notes from the following text:\n\n\"text\"\n\nFormat the notes as a hierarchical outline."},
		{"proofread", Task{Kind: KindProofread, Input: "teh cat"}, Preferences{},
			"Proofread the following text and provide only the corrected version:\n\n\"teh cat\""},
		{"translate", Task{Kind: KindTranslate, Input: "Hi", Language: "German"}, Preferences{},
			"Translate the following text to German:\n\n\"Hi\""},
		{"image default", Task{Kind: KindAnalyzeImage, Image: testImage()}, Preferences{},
			DefaultImageInstruction},
		{"image custom", Task{Kind: KindAnalyzeImage, Input: "Count the apples", Image: testImage()}, Preferences{},
			"Count the apples"},
		{"flashcards", Task{Kind: KindFlashcards, Input: "Mitosis"}, Preferences{},
			"Based on the following text, generate 5-10 flashcards. Text: \"Mitosis\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPrompt(tt.task, tt.prefs)
			if err != nil {
				t.Fatalf("BuildPrompt: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPromptKeepsNewlines(t *testing.T) {
	got, err := BuildPrompt(Task{Kind: KindSummarize, Input: "line one\nline two"}, Preferences{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "line one\nline two") {
		t.Errorf("input should be embedded verbatim: %q", got)
	}
}

func testImage() *library.ImagePart {
	return &library.ImagePart{InlineData: library.InlineData{Data: "iVBORw0K", MIMEType: "image/png"}}
}

func TestInvalidTasks(t *testing.T) {
	a := New(fixed("unused"))
	tests := []Task{
		{Kind: "essay", Input: "x"},
		{Kind: KindSummarize, Input: "   "},
		{Kind: KindTranslate, Input: "Hello"},
		{Kind: KindAnalyzeImage, Input: "what is this"},
		{Kind: KindChat, Input: "hi"},
	}
	for _, task := range tests {
		_, err := a.Run(context.Background(), task)
		if !errors.Is(err, ErrInvalidTask) {
			t.Errorf("Run(%+v) error = %v, want ErrInvalidTask", task, err)
		}
	}
}

func TestImageSentBeforeText(t *testing.T) {
	p := fixed("The image shows a mitochondrion.")
	a := New(p)

	res, err := a.Run(context.Background(), Task{Kind: KindAnalyzeImage, Image: testImage()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	msg := p.lastPrompt()
	if len(msg.Images) != 1 || msg.Images[0].MIMEType != "image/png" {
		t.Fatalf("image not attached: %+v", msg)
	}
	if msg.Content != DefaultImageInstruction {
		t.Errorf("content = %q", msg.Content)
	}

	item := res.NewItem(Task{Kind: KindAnalyzeImage, Image: testImage()})
	if item.Type != "Image Analysis" || item.ImagePart == nil || item.OriginalInput != DefaultImageInstruction {
		t.Errorf("unexpected saved item %+v", item)
	}
}

func TestCommunicationError(t *testing.T) {
	p := &stubProvider{reply: func(llm.CompletionRequest) (string, error) {
		return "", errors.New("503 service unavailable")
	}}
	a := New(p)

	_, err := a.Run(context.Background(), Task{Kind: KindSummarize, Input: "text"})
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("error = %v, want ErrCommunication", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("cause should be kept: %v", err)
	}
	if UserMessage(err) != CommunicationMessage {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
}

// slowProvider blocks until the request context ends.
type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Complete(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutIsCommunicationError(t *testing.T) {
	a := New(slowProvider{}, WithTimeout(20*time.Millisecond))

	_, err := a.Run(context.Background(), Task{Kind: KindNotes, Input: "x"})
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("error = %v, want ErrCommunication", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should be the deadline: %v", err)
	}
}

func TestFlashcards(t *testing.T) {
	p := fixed(`{"flashcards":[{"question":"What is ATP?","answer":"Energy currency"},{"question":"Where is it made?","answer":"Mitochondria"}]}`)
	a := New(p)

	cards, err := a.Flashcards(context.Background(), "Cells make ATP in mitochondria.")
	if err != nil {
		t.Fatalf("Flashcards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards", len(cards))
	}
	for _, c := range cards {
		if c.Question == "" || c.Answer == "" {
			t.Errorf("empty card field: %+v", c)
		}
	}
	if p.calls[0].Schema == nil || p.calls[0].Schema.Properties["flashcards"] == nil {
		t.Error("flashcard request should carry the response schema")
	}
}

func TestParseFlashcards(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"valid", `{"flashcards":[{"question":"Q","answer":"A"}]}`, 1, false},
		{"fenced", "```json\n{\"flashcards\":[{\"question\":\"Q\",\"answer\":\"A\"}]}\n```", 1, false},
		{"drops incomplete", `{"flashcards":[{"question":"Q","answer":""},{"question":"Q2","answer":"A2"}]}`, 1, false},
		{"all incomplete", `{"flashcards":[{"question":" ","answer":"A"}]}`, 0, true},
		{"empty list", `{"flashcards":[]}`, 0, true},
		{"not json", `Here are your flashcards!`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := ParseFlashcards(tt.content)
			if tt.wantErr {
				if !errors.Is(err, ErrFlashcardParse) {
					t.Fatalf("error = %v, want ErrFlashcardParse", err)
				}
				if len(cards) != 0 {
					t.Errorf("expected no cards on failure")
				}
				if UserMessage(err) != FlashcardErrorMessage {
					t.Errorf("UserMessage = %q", UserMessage(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cards) != tt.want {
				t.Errorf("got %d cards, want %d", len(cards), tt.want)
			}
		})
	}
}

func TestRunFlashcardsRendersText(t *testing.T) {
	a := New(fixed(`{"flashcards":[{"question":"Capital of France?","answer":"Paris"}]}`))
	res, err := a.Run(context.Background(), Task{Kind: KindFlashcards, Input: "Geography"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "1. Q: Capital of France?") || !strings.Contains(res.Text, "A: Paris") {
		t.Errorf("text = %q", res.Text)
	}
	item := res.NewItem(Task{Kind: KindFlashcards, Input: "Geography"})
	if len(item.Flashcards) != 1 || item.Type != "Flashcards" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"summarize", KindSummarize},
		{"Translate", KindTranslate},
		{"analyze-image", KindAnalyzeImage},
		{"Image Analysis", KindAnalyzeImage},
		{"Summary", KindSummarize},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, err := ParseKind("poem"); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("unknown kind error = %v", err)
	}
}

func TestLabels(t *testing.T) {
	want := map[Kind]string{
		KindSummarize:    "Summary",
		KindNotes:        "Notes",
		KindProofread:    "Proofread",
		KindTranslate:    "Translation",
		KindAnalyzeImage: "Image Analysis",
		KindFlashcards:   "Flashcards",
		KindChat:         "Chat",
	}
	for k, label := range want {
		if k.Label() != label {
			t.Errorf("%s.Label() = %q, want %q", k, k.Label(), label)
		}
		back, ok := KindForLabel(label)
		if !ok || back != k {
			t.Errorf("KindForLabel(%q) = %q, %v", label, back, ok)
		}
	}
}
