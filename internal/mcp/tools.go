package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindspark-app/mindspark/internal/study"
)

// taskKinds are the kinds run_task accepts. Chat is conversational and has
// no single-shot form.
func taskKinds() []string {
	var kinds []string
	for _, k := range study.Kinds {
		if k != study.KindChat {
			kinds = append(kinds, string(k))
		}
	}
	return kinds
}

// runTaskTool defines the run_task MCP tool.
var runTaskTool = mcp.NewTool("run_task",
	mcp.WithDescription("Run a study task: summarize, make notes, proofread, translate, analyze an image or generate flashcards."),
	mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("Task to run"),
		mcp.Enum(taskKinds()...),
	),
	mcp.WithString("input",
		mcp.Description("Text to work on. Optional for analyze_image, where it replaces the default instruction."),
	),
	mcp.WithString("language",
		mcp.Description("Target language, required for translate"),
	),
	mcp.WithString("image_path",
		mcp.Description("Path to a local image file, required for analyze_image"),
	),
	mcp.WithBoolean("save",
		mcp.Description("Save the result to the library"),
	),
)

// generateFlashcardsTool defines the generate_flashcards MCP tool.
var generateFlashcardsTool = mcp.NewTool("generate_flashcards",
	mcp.WithDescription("Generate question/answer flashcards from study text."),
	mcp.WithString("input",
		mcp.Required(),
		mcp.Description("Text to build flashcards from"),
	),
)

// listSavedWorkTool defines the list_saved_work MCP tool.
var listSavedWorkTool = mcp.NewTool("list_saved_work",
	mcp.WithDescription("List saved study results, newest first."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive match against title or description"),
	),
	mcp.WithString("type",
		mcp.Description("Only records of this type, e.g. Summary or Flashcards"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return (default 20)"),
	),
)

// getSavedWorkTool defines the get_saved_work MCP tool.
var getSavedWorkTool = mcp.NewTool("get_saved_work",
	mcp.WithDescription("Get one saved study result in full."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Record id as returned by list_saved_work"),
	),
)
