package db

import (
	"fmt"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.AttachmentRepository = (*Repository)(nil)

// dbAttachment represents an attachment as stored in the database.
// Data is left nil by listing queries to keep result sets small.
type dbAttachment struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Filename       string    `db:"filename"`
	ContentType    string    `db:"content_type"`
	Size           int64     `db:"size"`
	Data           []byte    `db:"data"`
	CreatedAt      time.Time `db:"created_at"`
}

// toDomainAttachment converts a dbAttachment into a domain.Attachment.
func toDomainAttachment(dbAtt *dbAttachment) *domain.Attachment {
	return &domain.Attachment{
		ID:             dbAtt.ID,
		ConversationID: dbAtt.ConversationID,
		Filename:       dbAtt.Filename,
		ContentType:    dbAtt.ContentType,
		Size:           dbAtt.Size,
		Data:           dbAtt.Data,
		CreatedAt:      dbAtt.CreatedAt,
	}
}

// InsertAttachment stores an uploaded file under a conversation.
func (repo *Repository) InsertAttachment(attachment *domain.Attachment) error {
	dbAtt := &dbAttachment{
		ID:             attachment.ID,
		ConversationID: attachment.ConversationID,
		Filename:       attachment.Filename,
		ContentType:    attachment.ContentType,
		Size:           attachment.Size,
		Data:           attachment.Data,
		CreatedAt:      attachment.CreatedAt,
	}
	query := `INSERT INTO attachments (id, conversation_id, filename, content_type, size, data, created_at)
			  VALUES (:id, :conversation_id, :filename, :content_type, :size, :data, :created_at)`

	_, err := repo.dbConn.NamedExec(query, dbAtt)
	if err != nil {
		return fmt.Errorf("inserting attachment %s : %w", attachment.ID, err)
	}
	return nil
}

// GetAttachments retrieves the attachments of a conversation without their file data.
func (repo *Repository) GetAttachments(conversationID uuid.UUID) ([]*domain.Attachment, error) {
	var dbAttachments []*dbAttachment
	query := `SELECT id, conversation_id, filename, content_type, size, created_at
			  FROM attachments WHERE conversation_id = ? ORDER BY created_at ASC`

	err := repo.dbConn.Select(&dbAttachments, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetching attachments for conversation %s : %w", conversationID, err)
	}

	attachments := make([]*domain.Attachment, len(dbAttachments))
	for i, dbAtt := range dbAttachments {
		attachments[i] = toDomainAttachment(dbAtt)
	}
	return attachments, nil
}

// GetAttachment retrieves a single attachment including its file data.
func (repo *Repository) GetAttachment(id uuid.UUID) (*domain.Attachment, error) {
	var dbAtt dbAttachment
	query := `SELECT * FROM attachments WHERE id = ?`

	err := repo.dbConn.Get(&dbAtt, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting attachment %s : %w", id, err)
	}
	return toDomainAttachment(&dbAtt), nil
}

// DeleteAttachment removes an attachment.
func (repo *Repository) DeleteAttachment(id uuid.UUID) error {
	query := `DELETE FROM attachments WHERE id = ?`

	result, err := repo.dbConn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("deleting attachment %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for attachment %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no attachment found with id %s to delete", id)
	}
	return nil
}
