package study

import (
	"fmt"
	"strings"
)

// DefaultImageInstruction is used when an image is submitted without text.
const DefaultImageInstruction = "Extract the text from this image and summarize it concisely."

// Preferences tune the summarize and notes prompts. Empty values leave the
// prompt unchanged.
type Preferences struct {
	SummaryLength string
	NoteStyle     string
}

var summaryLengthHints = map[string]string{
	"short":    "Keep the summary short: no more than three sentences.",
	"detailed": "Make the summary detailed, covering every main point.",
}

var noteStyleHints = map[string]string{
	"bullets":   "Format the notes as bullet points.",
	"outline":   "Format the notes as a hierarchical outline.",
	"paragraph": "Write the notes as short paragraphs.",
}

// BuildPrompt returns the text sent to the model for t.
func BuildPrompt(t Task, prefs Preferences) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	var prompt string
	switch t.Kind {
	case KindSummarize:
		prompt = fmt.Sprintf("Summarize the following text:\n\n\"%s\"", t.Input)
		prompt = withHint(prompt, summaryLengthHints[prefs.SummaryLength])
	case KindNotes:
		prompt = fmt.Sprintf("Generate detailed notes from the following text:\n\n\"%s\"", t.Input)
		prompt = withHint(prompt, noteStyleHints[prefs.NoteStyle])
	case KindProofread:
		prompt = fmt.Sprintf("Proofread the following text and provide only the corrected version:\n\n\"%s\"", t.Input)
	case KindTranslate:
		prompt = fmt.Sprintf("Translate the following text to %s:\n\n\"%s\"", t.Language, t.Input)
	case KindAnalyzeImage:
		prompt = t.Input
		if strings.TrimSpace(prompt) == "" {
			prompt = DefaultImageInstruction
		}
	case KindFlashcards:
		prompt = FlashcardPrompt(t.Input)
	default:
		return "", fmt.Errorf("%w: %s has no single-shot prompt", ErrInvalidTask, t.Kind)
	}
	return prompt, nil
}

// FlashcardPrompt asks for 5-10 cards about text.
func FlashcardPrompt(text string) string {
	return fmt.Sprintf("Based on the following text, generate 5-10 flashcards. Text: \"%s\"", text)
}

func withHint(prompt, hint string) string {
	if hint == "" {
		return prompt
	}
	return prompt + "\n\n" + hint
}
