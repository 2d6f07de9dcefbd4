package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/mindspark-app/mindspark/internal/library"
)

// TextExporter writes the result text only.
type TextExporter struct{}

func (TextExporter) Export(doc Document) ([]byte, error) {
	return []byte(doc.Result), nil
}

func (TextExporter) FileExtension() string { return ".txt" }
func (TextExporter) MimeType() string      { return "text/plain; charset=utf-8" }

// MarkdownExporter writes a titled document with the result, any
// flashcards and the original input.
type MarkdownExporter struct{}

func (MarkdownExporter) Export(doc Document) ([]byte, error) {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = library.TitleFor(doc.Input)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var meta []string
	if doc.Label != "" {
		meta = append(meta, doc.Label)
	}
	if !doc.Timestamp.IsZero() {
		meta = append(meta, doc.Timestamp.Format(time.RFC1123))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " | "))
	}

	b.WriteString("## Result\n\n")
	b.WriteString(strings.TrimSpace(doc.Result))
	b.WriteString("\n")

	if len(doc.Flashcards) > 0 {
		b.WriteString("\n## Flashcards\n\n")
		for i, c := range doc.Flashcards {
			fmt.Fprintf(&b, "%d. **%s**  \n   %s\n", i+1, c.Question, c.Answer)
		}
	}

	if strings.TrimSpace(doc.Input) != "" {
		b.WriteString("\n## Original input\n\n")
		for _, line := range strings.Split(strings.TrimSpace(doc.Input), "\n") {
			b.WriteString("> " + line + "\n")
		}
	}
	return []byte(b.String()), nil
}

func (MarkdownExporter) FileExtension() string { return ".md" }
func (MarkdownExporter) MimeType() string      { return "text/markdown; charset=utf-8" }

// HTMLExporter renders the Markdown export to a standalone HTML page.
type HTMLExporter struct {
	md goldmark.Markdown
}

// NewHTMLExporter creates an HTMLExporter with GFM and code highlighting.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1f2937; }
h1 { color: #4f46e5; }
blockquote { border-left: 4px solid #c7d2fe; margin: 0; padding-left: 1rem; color: #4b5563; }
pre { padding: 1rem; overflow-x: auto; border-radius: 0.5rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func (h *HTMLExporter) Export(doc Document) ([]byte, error) {
	src, err := MarkdownExporter{}.Export(doc)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := h.md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	title := doc.Title
	if title == "" {
		title = library.TitleFor(doc.Input)
	}

	var out bytes.Buffer
	err = pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

func (*HTMLExporter) FileExtension() string { return ".html" }
func (*HTMLExporter) MimeType() string      { return "text/html; charset=utf-8" }

// JSONExporter writes the document using the saved-work field names.
type JSONExporter struct{}

type jsonDocument struct {
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Timestamp     time.Time           `json:"timestamp"`
	OriginalInput string              `json:"originalInput"`
	ResultText    string              `json:"resultText"`
	Flashcards    []library.Flashcard `json:"flashcards,omitempty"`
}

func (JSONExporter) Export(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(jsonDocument{
		Type:          doc.Label,
		Title:         doc.Title,
		Timestamp:     doc.Timestamp,
		OriginalInput: doc.Input,
		ResultText:    doc.Result,
		Flashcards:    doc.Flashcards,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return append(data, '\n'), nil
}

func (JSONExporter) FileExtension() string { return ".json" }
func (JSONExporter) MimeType() string      { return "application/json" }
