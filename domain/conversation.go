package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message roles as stored in the messages table.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationRepository is the interface that holds all the conversation and
// message related repository methods in Glyco.
type ConversationRepository interface {
	// CreateConversation inserts a new conversation with the given title and
	// returns the UUID of the newly created conversation.
	CreateConversation(title string) (uuid.UUID, error)

	// GetConversations retrieves all conversations ordered by most recently updated.
	GetConversations() ([]*Conversation, error)

	// GetConversation retrieves a single conversation by its UUID.
	// It returns an error if no conversation with the ID is found.
	GetConversation(id uuid.UUID) (*Conversation, error)

	// RenameConversation updates the title of an existing conversation.
	// It returns an error if the conversation does not exist.
	RenameConversation(id uuid.UUID, title string) error

	// DeleteConversation removes a conversation and all of its messages,
	// profile, and attachments. It returns an error if the conversation does not exist.
	DeleteConversation(id uuid.UUID) error

	// AppendMessage inserts a message into a conversation and bumps the
	// conversation's updated_at timestamp.
	AppendMessage(msg *Message) error

	// GetMessages retrieves all messages of a conversation in chronological order.
	GetMessages(conversationID uuid.UUID) ([]*Message, error)

	// GetMessage retrieves a single message by its UUID.
	GetMessage(id uuid.UUID) (*Message, error)

	// UpdateMessageMetadata replaces the metadata map of one or more messages.
	UpdateMessageMetadata(metadata map[string]any, ids ...uuid.UUID) error
}

// Conversation represents one question-and-answer thread between a user and the
// education assistant.
type Conversation struct {
	ID        uuid.UUID // Unique identifier for the conversation.
	Title     string    // Display title, taken from the first question.
	CreatedAt time.Time // When the conversation was started.
	UpdatedAt time.Time // When the conversation last received a message.
}

// Message represents a single entry in a conversation transcript.
type Message struct {
	ID             uuid.UUID      // Unique identifier for the message.
	ConversationID uuid.UUID      // Conversation this message belongs to.
	Role           string         // One of RoleSystem, RoleUser, RoleAssistant.
	Content        string         // Message text as shown to the user.
	Metadata       map[string]any // Additional metadata (safety flags, extension data, provider info).
	CreatedAt      time.Time      // When the message was recorded.
}
