package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

const defaultListLimit = 20

// handleRunTask runs one study task and optionally saves the result.
func (s *Server) handleRunTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: kind"), nil
	}
	kind, err := study.ParseKind(kindStr)
	if err != nil || kind == study.KindChat {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported task kind %q", kindStr)), nil
	}

	task := study.Task{
		Kind:     kind,
		Input:    request.GetString("input", ""),
		Language: request.GetString("language", ""),
	}
	if path := request.GetString("image_path", ""); path != "" {
		img, err := imageinput.Load(path, s.maxImageBytes)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reading image: %v", err)), nil
		}
		task.Image = img
	}

	res, err := s.assistant.Run(ctx, task)
	if err != nil {
		return s.taskError(kind, err), nil
	}

	var b strings.Builder
	b.WriteString(res.Text)
	if request.GetBool("save", false) {
		item, err := s.library.Save(ctx, res.NewItem(task))
		if err != nil {
			s.logger.Error("saving mcp result", zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("result ready but saving failed: %v", err)), nil
		}
		fmt.Fprintf(&b, "\n\nSaved as %s.", item.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGenerateFlashcards builds flashcards from the input text.
func (s *Server) handleGenerateFlashcards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input"), nil
	}

	cards, err := s.assistant.Flashcards(ctx, input)
	if err != nil {
		return s.taskError(study.KindFlashcards, err), nil
	}
	return mcp.NewToolResultText(study.FormatFlashcards(cards)), nil
}

// handleListSavedWork lists saved records matching the optional filters.
func (s *Server) handleListSavedWork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	items := s.library.Search(ctx, library.Filter{
		Query: request.GetString("query", ""),
		Type:  request.GetString("type", ""),
		Limit: limit,
	})
	if len(items) == 0 {
		return mcp.NewToolResultText("No saved work found."), nil
	}
	return mcp.NewToolResultText(formatItemList(items)), nil
}

// handleGetSavedWork returns a single record in full.
func (s *Server) handleGetSavedWork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	item, err := s.library.Get(ctx, id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no saved work with id %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("reading saved work: %v", err)), nil
	}
	return mcp.NewToolResultText(formatItem(item)), nil
}

func (s *Server) taskError(kind study.Kind, err error) *mcp.CallToolResult {
	if errors.Is(err, study.ErrCommunication) {
		s.logger.Warn("mcp task failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return mcp.NewToolResultError(study.UserMessage(err))
}

// formatItemList renders one line per record.
func formatItemList(items []library.Item) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "- %s [%s] %s (%s)\n", it.ID, it.Type, it.Title, it.Timestamp.Format("2006-01-02 15:04"))
		if it.Description != "" {
			fmt.Fprintf(&b, "  %s\n", it.Description)
		}
	}
	return b.String()
}

func formatItem(it library.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", it.Title)
	fmt.Fprintf(&b, "Type: %s\nSaved: %s\nID: %s\n\n", it.Type, it.Timestamp.Format("2006-01-02 15:04"), it.ID)
	b.WriteString("## Result\n\n")
	b.WriteString(strings.TrimSpace(it.ResultText))
	b.WriteString("\n")
	if len(it.Flashcards) > 0 {
		b.WriteString("\n## Flashcards\n\n")
		b.WriteString(study.FormatFlashcards(it.Flashcards))
	}
	if it.OriginalInput != "" {
		b.WriteString("\n## Original input\n\n")
		b.WriteString(it.OriginalInput)
		b.WriteString("\n")
	}
	if it.ImagePart != nil {
		fmt.Fprintf(&b, "\n(Attached image: %s)\n", it.ImagePart.InlineData.MIMEType)
	}
	return b.String()
}
