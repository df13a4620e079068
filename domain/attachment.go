package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentRepository defines the interface for managing files uploaded into a
// conversation, such as medication lists or lab summaries.
type AttachmentRepository interface {
	// InsertAttachment stores an uploaded file under a conversation.
	InsertAttachment(attachment *Attachment) error

	// GetAttachments retrieves the attachments of a conversation without their file data.
	GetAttachments(conversationID uuid.UUID) ([]*Attachment, error)

	// GetAttachment retrieves a single attachment including its file data.
	GetAttachment(id uuid.UUID) (*Attachment, error)

	// DeleteAttachment removes an attachment.
	DeleteAttachment(id uuid.UUID) error
}

// Attachment represents a file uploaded into a conversation.
type Attachment struct {
	ID             uuid.UUID // Unique identifier for the attachment.
	ConversationID uuid.UUID // Conversation the file was uploaded into.
	Filename       string    // Original filename as provided by the client.
	ContentType    string    // Detected media type, not the client-declared one.
	Size           int64     // File size in bytes.
	Data           []byte    // Raw file contents. Nil in listing results.
	CreatedAt      time.Time // When the file was uploaded.
}
