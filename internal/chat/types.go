// Package chat runs streaming conversations with the study advisor.
package chat

import "errors"

// Role identifies who wrote a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Entry is one line of a transcript.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

const (
	DefaultSystemInstruction = "You are a friendly and encouraging study advisor named Sparky. " +
		"Provide helpful tips, motivation, and advice to students. " +
		"Keep your responses concise and easy to read."
	DefaultGreeting = "Hello! I'm Sparky, your AI study advisor. How can I help you prepare for success today?"

	// ErrorMessage is shown to the user when a reply fails.
	ErrorMessage = "Sorry, something went wrong. Please try again."
)

var (
	// ErrBusy is returned by Send while the previous reply is still streaming.
	ErrBusy = errors.New("chat: a reply is already in progress")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("chat: session not found")
)
