package study

import "errors"

var (
	// ErrCommunication wraps any failure talking to the model.
	ErrCommunication = errors.New("an error occurred while communicating with the AI")

	// ErrFlashcardParse means the model's flashcard reply held no usable cards.
	ErrFlashcardParse = errors.New("could not generate flashcards")

	// ErrInvalidTask means required task input is missing or unknown.
	ErrInvalidTask = errors.New("invalid task")
)

// User-facing messages.
const (
	CommunicationMessage  = "An error occurred while communicating with the AI. Please try again."
	FlashcardErrorMessage = "Could not generate flashcards."
)

// UserMessage returns the text to show a user for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCommunication):
		return CommunicationMessage
	case errors.Is(err, ErrFlashcardParse):
		return FlashcardErrorMessage
	default:
		return err.Error()
	}
}
