package domain

// StatsRepository defines the interface for retrieving various statistics about the application's data.
// It provides methods for counting different types of entities within the repository.
type StatsRepository interface {
	// CountConversations returns the total number of conversations stored in the repository.
	CountConversations() (int, error)
	// CountMessages returns the total number of messages across all conversations.
	CountMessages() (int, error)
	// CountFlagged returns the number of messages flagged by the safety gate.
	CountFlagged() (int, error)
	// CountAttachments returns the total number of uploaded attachments.
	CountAttachments() (int, error)
}
