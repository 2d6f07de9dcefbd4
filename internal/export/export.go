// Package export renders task results and saved work as downloadable files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

// Document is the content of one export.
type Document struct {
	Kind       string
	Label      string
	Title      string
	Input      string
	Result     string
	Flashcards []library.Flashcard
	Timestamp  time.Time
}

// Exporter renders a Document in one format.
type Exporter interface {
	Export(doc Document) ([]byte, error)
	// FileExtension includes the leading dot.
	FileExtension() string
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"txt", "md", "html", "json"}

// ForFormat returns the exporter for a format name. Empty means txt.
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "txt", "text":
		return TextExporter{}, nil
	case "md", "markdown":
		return MarkdownExporter{}, nil
	case "html":
		return NewHTMLExporter(), nil
	case "json":
		return JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// FromResult builds a Document for a result that has not been saved.
func FromResult(task study.Task, res *study.Result) Document {
	input := task.Input
	if task.Kind == study.KindAnalyzeImage && strings.TrimSpace(input) == "" {
		input = study.DefaultImageInstruction
	}
	return Document{
		Kind:       string(res.Kind),
		Label:      res.Label,
		Title:      library.TitleFor(input),
		Input:      input,
		Result:     res.Text,
		Flashcards: res.Flashcards,
		Timestamp:  time.Now().UTC(),
	}
}

// FromItem builds a Document for a saved record.
func FromItem(item library.Item) Document {
	kind := slug(item.Type)
	if k, ok := study.KindForLabel(item.Type); ok {
		kind = string(k)
	}
	return Document{
		Kind:       kind,
		Label:      item.Type,
		Title:      item.Title,
		Input:      item.OriginalInput,
		Result:     item.ResultText,
		Flashcards: item.Flashcards,
		Timestamp:  item.Timestamp,
	}
}

// Filename returns "<kind>_result<ext>".
func Filename(doc Document, e Exporter) string {
	kind := doc.Kind
	if kind == "" {
		kind = "task"
	}
	return kind + "_result" + e.FileExtension()
}

// WriteFile exports doc into dir and returns the written path.
func WriteFile(dir string, doc Document, e Exporter) (string, error) {
	content, err := e.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, Filename(doc, e))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "_"), "_")
}
