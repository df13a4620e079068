package db

import (
	"fmt"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.ConversationRepository = (*Repository)(nil)

// dbConversation represents a conversation as stored in the database.
type dbConversation struct {
	ID        uuid.UUID `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// dbMessage represents a message as stored in the database.
type dbMessage struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	Metadata       Metadata  `db:"metadata"`
	CreatedAt      time.Time `db:"created_at"`
}

// toDomainConversation converts a dbConversation into a domain.Conversation.
func toDomainConversation(dbConv *dbConversation) *domain.Conversation {
	return &domain.Conversation{
		ID:        dbConv.ID,
		Title:     dbConv.Title,
		CreatedAt: dbConv.CreatedAt,
		UpdatedAt: dbConv.UpdatedAt,
	}
}

// toDomainMessage converts a dbMessage into a domain.Message.
func toDomainMessage(dbMsg *dbMessage) *domain.Message {
	return &domain.Message{
		ID:             dbMsg.ID,
		ConversationID: dbMsg.ConversationID,
		Role:           dbMsg.Role,
		Content:        dbMsg.Content,
		Metadata:       map[string]any(dbMsg.Metadata),
		CreatedAt:      dbMsg.CreatedAt,
	}
}

// fromDomainMessage converts a domain.Message into a dbMessage for insertion.
func fromDomainMessage(msg *domain.Message) *dbMessage {
	return &dbMessage{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Metadata:       Metadata(msg.Metadata),
		CreatedAt:      msg.CreatedAt,
	}
}

// CreateConversation inserts a new conversation and returns its UUID.
func (repo *Repository) CreateConversation(title string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating conversation uuid : %w", err)
	}

	query := `INSERT INTO conversations (id, title, created_at, updated_at)
			  VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	_, err = repo.dbConn.Exec(query, id, title)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting conversation %s : %w", id, err)
	}
	return id, nil
}

// GetConversations retrieves all conversations ordered by most recently updated.
func (repo *Repository) GetConversations() ([]*domain.Conversation, error) {
	var dbConvs []*dbConversation
	query := `SELECT * FROM conversations ORDER BY updated_at DESC`

	err := repo.dbConn.Select(&dbConvs, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all conversations : %w", err)
	}

	convs := make([]*domain.Conversation, len(dbConvs))
	for i, dbConv := range dbConvs {
		convs[i] = toDomainConversation(dbConv)
	}
	return convs, nil
}

// GetConversation retrieves a single conversation by its UUID.
func (repo *Repository) GetConversation(id uuid.UUID) (*domain.Conversation, error) {
	var dbConv dbConversation
	query := `SELECT * FROM conversations WHERE id = ?`

	err := repo.dbConn.Get(&dbConv, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s : %w", id, err)
	}
	return toDomainConversation(&dbConv), nil
}

// RenameConversation updates the title of an existing conversation.
func (repo *Repository) RenameConversation(id uuid.UUID, title string) error {
	query := `UPDATE conversations SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := repo.dbConn.Exec(query, title, id)
	if err != nil {
		return fmt.Errorf("renaming conversation %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for conversation %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no conversation found with id %s to rename", id)
	}
	return nil
}

// DeleteConversation removes a conversation. Messages, the profile, and
// attachments are removed by the ON DELETE CASCADE constraints.
func (repo *Repository) DeleteConversation(id uuid.UUID) error {
	query := `DELETE FROM conversations WHERE id = ?`

	result, err := repo.dbConn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for conversation %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no conversation found with id %s to delete", id)
	}
	return nil
}

// AppendMessage inserts a message and bumps the conversation's updated_at timestamp.
func (repo *Repository) AppendMessage(msg *domain.Message) error {
	dbMsg := fromDomainMessage(msg)
	query := `INSERT INTO messages (id, conversation_id, role, content, metadata, created_at)
			  VALUES (:id, :conversation_id, :role, :content, :metadata, :created_at)`

	_, err := repo.dbConn.NamedExec(query, dbMsg)
	if err != nil {
		return fmt.Errorf("inserting message %s : %w", msg.ID, err)
	}

	_, err = repo.dbConn.Exec(`UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("bumping conversation %s : %w", msg.ConversationID, err)
	}
	return nil
}

// GetMessages retrieves all messages of a conversation in chronological order.
func (repo *Repository) GetMessages(conversationID uuid.UUID) ([]*domain.Message, error) {
	var dbMsgs []*dbMessage
	query := `SELECT * FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`

	err := repo.dbConn.Select(&dbMsgs, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetching messages for conversation %s : %w", conversationID, err)
	}

	msgs := make([]*domain.Message, len(dbMsgs))
	for i, dbMsg := range dbMsgs {
		msgs[i] = toDomainMessage(dbMsg)
	}
	return msgs, nil
}

// GetMessage retrieves a single message by its UUID.
func (repo *Repository) GetMessage(id uuid.UUID) (*domain.Message, error) {
	var dbMsg dbMessage
	query := `SELECT * FROM messages WHERE id = ?`

	err := repo.dbConn.Get(&dbMsg, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting message %s : %w", id, err)
	}
	return toDomainMessage(&dbMsg), nil
}

// UpdateMessageMetadata replaces the metadata for one or more messages identified by their IDs.
func (repo *Repository) UpdateMessageMetadata(metadata map[string]any, ids ...uuid.UUID) error {
	dbMeta := Metadata(metadata)
	query := `UPDATE messages SET metadata = ? WHERE id = ?`

	for _, id := range ids {
		_, err := repo.dbConn.Exec(query, dbMeta, id)
		if err != nil {
			return fmt.Errorf("updating metadata %v for %v : %w", dbMeta, id, err)
		}
	}
	return nil
}
