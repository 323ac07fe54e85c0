package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrDimensionMismatch is returned when two embeddings of different
	// dimensionality are compared, e.g. after switching embedding providers
	// without re-embedding the stored messages.
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")
)

// Sender identifies who produced a stored message. It is set once at record
// time by the caller and never inferred from the message text.
type Sender string

const (
	SenderUser  Sender = "USER"
	SenderAgent Sender = "AGENT"
)

// Role is a role tag in a language model prompt.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Role maps a sender to the prompt role its messages carry.
func (s Sender) Role() Role {
	if s == SenderUser {
		return RoleUser
	}
	return RoleAssistant
}

// CommandPrefix marks control commands such as "@amnesia". Command messages
// are never embedded and never persisted.
const CommandPrefix = "@"

// IsCommand reports whether text is a control command rather than a
// conversation turn.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, CommandPrefix)
}

// Message is one persisted conversation turn.
type Message struct {
	ID        int64
	Timestamp string
	Sender    Sender
	Text      string
	Embedding []float32
}

// Snippet is a retrieved past message surfaced by similarity search.
// Snippets are ephemeral and never persisted.
type Snippet struct {
	Role Role
	Text string
}

// Turn is one role-tagged entry of the prompt handed to the language model.
type Turn struct {
	Role    Role
	Content string
}
