package db

import (
	"fmt"

	"github.com/glyco-app/glyco/domain"
)

var _ domain.StatsRepository = (*Repository)(nil)

// CountConversations returns the total number of conversations.
func (repo *Repository) CountConversations() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM conversations`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("counting conversations : %w", err)
	}
	return count, nil
}

// CountMessages returns the total number of messages across all conversations.
func (repo *Repository) CountMessages() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("counting messages : %w", err)
	}
	return count, nil
}

// CountFlagged returns the number of messages flagged by the safety gate.
func (repo *Repository) CountFlagged() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE json_extract(metadata, '$.flagged') = true`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("counting flagged messages : %w", err)
	}
	return count, nil
}

// CountAttachments returns the total number of uploaded attachments.
func (repo *Repository) CountAttachments() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM attachments`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("counting attachments : %w", err)
	}
	return count, nil
}
