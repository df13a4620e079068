package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlaybookRepository defines the interface for managing Playbooks, which are collections
// of saved education questions. It provides methods for creating, retrieving, updating,
// and deleting playbooks, as well as managing the questions associated with them.
type PlaybookRepository interface {
	// GetPlaybooks retrieves all playbooks configured in the application.
	GetPlaybooks() ([]*Playbook, error)

	// CreatePlaybook creates a new playbook with the given name and description.
	// It returns the UUID of the newly created playbook.
	CreatePlaybook(name string, description string) (uuid.UUID, error)

	// UpdatePlaybook updates the name and description of an existing playbook.
	// It returns an error if the playbook does not exist.
	UpdatePlaybook(playbookID uuid.UUID, name, description string) error

	// DeletePlaybook removes a playbook and its saved questions.
	// It returns an error if the playbook does not exist.
	DeletePlaybook(playbookID uuid.UUID) error

	// GetPlaybookQuestions retrieves all saved questions of a playbook.
	// If the playbook has no questions, it returns an empty slice.
	GetPlaybookQuestions(id uuid.UUID) ([]*PlaybookQuestion, error)

	// AddPlaybookQuestion saves a question text under a playbook and returns its UUID.
	AddPlaybookQuestion(playbookID uuid.UUID, question string) (uuid.UUID, error)

	// RemovePlaybookQuestion deletes a saved question.
	RemovePlaybookQuestion(questionID uuid.UUID) error
}

// Playbook represents a collection of saved questions, allowing users to group
// recurring education topics and re-ask them in new conversations.
type Playbook struct {
	ID          uuid.UUID // Unique identifier for the playbook.
	Name        string    // The name of the playbook.
	Description string    // A brief description of the playbook's purpose.
}

// PlaybookQuestion represents a single saved question inside a playbook.
type PlaybookQuestion struct {
	ID         uuid.UUID // Unique identifier for the saved question.
	PlaybookID uuid.UUID // The playbook this question belongs to.
	Question   string    // The question text.
	CreatedAt  time.Time // When the question was saved.
}
