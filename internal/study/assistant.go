// Package study turns study tasks into model requests and model replies
// into results.
package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/llm"
)

// Task is one request for the model.
type Task struct {
	Kind     Kind
	Input    string
	Language string
	Image    *library.ImagePart
}

// Validate reports ErrInvalidTask when required input is missing.
func (t Task) Validate() error {
	switch {
	case !t.Kind.Valid():
		return fmt.Errorf("%w: unknown task kind %q", ErrInvalidTask, t.Kind)
	case t.Kind == KindAnalyzeImage:
		if t.Image == nil || t.Image.InlineData.Data == "" {
			return fmt.Errorf("%w: analyze_image needs an image", ErrInvalidTask)
		}
	case strings.TrimSpace(t.Input) == "":
		return fmt.Errorf("%w: %s needs input text", ErrInvalidTask, t.Kind)
	case t.Kind == KindTranslate && strings.TrimSpace(t.Language) == "":
		return fmt.Errorf("%w: translate needs a target language", ErrInvalidTask)
	}
	return nil
}

// Usage reports what a call consumed.
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Result is the outcome of a task.
type Result struct {
	Kind       Kind                `json:"kind"`
	Label      string              `json:"label"`
	Text       string              `json:"result"`
	Flashcards []library.Flashcard `json:"flashcards,omitempty"`
	Usage      Usage               `json:"usage"`
}

// NewItem builds the record saved for r. Title and description are
// derived from input and result by the library.
func (r *Result) NewItem(t Task) library.NewItem {
	input := t.Input
	if t.Kind == KindAnalyzeImage && strings.TrimSpace(input) == "" {
		input = DefaultImageInstruction
	}
	return library.NewItem{
		Type:          r.Label,
		OriginalInput: input,
		ResultText:    r.Text,
		Flashcards:    r.Flashcards,
		ImagePart:     t.Image,
	}
}

// Assistant runs study tasks against a provider.
type Assistant struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	prefs       Preferences
	logger      *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithModel sets the model named in every request.
func WithModel(model string) Option {
	return func(a *Assistant) { a.model = model }
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int) Option {
	return func(a *Assistant) { a.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Assistant) { a.temperature = t }
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

// WithPreferences sets the summary length and note style used in prompts.
func WithPreferences(p Preferences) Option {
	return func(a *Assistant) { a.prefs = p }
}

// WithLogger sets the logger for call diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Assistant.
func New(provider llm.Provider, opts ...Option) *Assistant {
	a := &Assistant{
		provider:    provider,
		temperature: 0.7,
		timeout:     60 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Provider returns the underlying provider.
func (a *Assistant) Provider() llm.Provider {
	return a.provider
}

// Model returns the configured model name.
func (a *Assistant) Model() string {
	return a.model
}

// Request builds the completion request for t without sending it.
func (a *Assistant) Request(t Task) (llm.CompletionRequest, error) {
	prompt, err := BuildPrompt(t, a.prefs)
	if err != nil {
		return llm.CompletionRequest{}, err
	}

	msg := llm.Message{Role: llm.RoleUser, Content: prompt}
	if t.Kind == KindAnalyzeImage {
		msg.Images = []llm.Image{{Data: t.Image.InlineData.Data, MIMEType: t.Image.InlineData.MIMEType}}
	}

	req := llm.CompletionRequest{
		Model:       a.model,
		Messages:    []llm.Message{msg},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}
	if t.Kind == KindFlashcards {
		req.Schema = FlashcardSchema()
	}
	return req, nil
}

// Run sends t to the model. A flashcards task parses the cards and also
// renders them as text.
func (a *Assistant) Run(ctx context.Context, t Task) (*Result, error) {
	req, err := a.Request(t)
	if err != nil {
		return nil, err
	}

	resp, err := a.complete(ctx, t.Kind, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Kind:  t.Kind,
		Label: t.Kind.Label(),
		Text:  resp.Content,
		Usage: usageOf(resp, a.model),
	}
	if t.Kind == KindFlashcards {
		cards, err := ParseFlashcards(resp.Content)
		if err != nil {
			return nil, err
		}
		res.Flashcards = cards
		res.Text = FormatFlashcards(cards)
	}
	return res, nil
}

// Flashcards generates cards for text. A reply without usable cards is
// ErrFlashcardParse; callers keep whatever primary result they hold.
func (a *Assistant) Flashcards(ctx context.Context, text string) ([]library.Flashcard, error) {
	res, err := a.Run(ctx, Task{Kind: KindFlashcards, Input: text})
	if err != nil {
		return nil, err
	}
	return res.Flashcards, nil
}

func (a *Assistant) complete(ctx context.Context, kind Kind, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		a.logger.Warn("model call failed",
			zap.String("provider", a.provider.Name()),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	a.logger.Debug("model call finished",
		zap.String("provider", a.provider.Name()),
		zap.String("kind", string(kind)),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func usageOf(resp *llm.CompletionResponse, fallbackModel string) Usage {
	model := resp.Model
	if model == "" {
		model = fallbackModel
	}
	return Usage{
		Model:        model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      llm.EstimateCost(model, resp.InputTokens, resp.OutputTokens),
	}
}

// FlashcardSchema is the response shape requested for flashcards.
func FlashcardSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"flashcards": {
				Type: llm.TypeArray,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"question": {Type: llm.TypeString},
						"answer":   {Type: llm.TypeString},
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: []string{"flashcards"},
	}
}

// ParseFlashcards decodes a {"flashcards": [...]} reply. Cards missing a
// question or answer are dropped; no usable card is ErrFlashcardParse.
func ParseFlashcards(content string) ([]library.Flashcard, error) {
	var payload struct {
		Flashcards []library.Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(stripFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlashcardParse, err)
	}

	cards := make([]library.Flashcard, 0, len(payload.Flashcards))
	for _, c := range payload.Flashcards {
		c.Question = strings.TrimSpace(c.Question)
		c.Answer = strings.TrimSpace(c.Answer)
		if c.Question == "" || c.Answer == "" {
			continue
		}
		cards = append(cards, c)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: reply held no complete cards", ErrFlashcardParse)
	}
	return cards, nil
}

// stripFence removes a surrounding markdown code fence, which providers
// without native structured output sometimes add.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// FormatFlashcards renders cards as numbered Q/A pairs.
func FormatFlashcards(cards []library.Flashcard) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, c.Question, c.Answer)
	}
	return b.String()
}
