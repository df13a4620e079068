package db

import (
	"fmt"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.PlaybookRepository = (*Repository)(nil)

// dbPlaybook represents a playbook as stored in the database.
type dbPlaybook struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
}

// dbPlaybookQuestion represents a saved question as stored in the database.
type dbPlaybookQuestion struct {
	ID         uuid.UUID `db:"id"`
	PlaybookID uuid.UUID `db:"playbook_id"`
	Question   string    `db:"question"`
	CreatedAt  time.Time `db:"created_at"`
}

// GetPlaybooks retrieves all playbooks from the database.
func (repo *Repository) GetPlaybooks() ([]*domain.Playbook, error) {
	var dbPlaybooks []*dbPlaybook
	query := `SELECT * FROM playbooks ORDER BY name ASC`

	err := repo.dbConn.Select(&dbPlaybooks, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all playbooks : %w", err)
	}

	playbooks := make([]*domain.Playbook, len(dbPlaybooks))
	for i, dbPb := range dbPlaybooks {
		playbooks[i] = &domain.Playbook{
			ID:          dbPb.ID,
			Name:        dbPb.Name,
			Description: dbPb.Description,
		}
	}
	return playbooks, nil
}

// CreatePlaybook creates a new playbook and returns its UUID.
func (repo *Repository) CreatePlaybook(name string, description string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating playbook uuid : %w", err)
	}

	query := `INSERT INTO playbooks (id, name, description) VALUES (?, ?, ?)`

	_, err = repo.dbConn.Exec(query, id, name, description)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting playbook %s : %w", name, err)
	}
	return id, nil
}

// UpdatePlaybook updates the name and description of an existing playbook.
func (repo *Repository) UpdatePlaybook(playbookID uuid.UUID, name, description string) error {
	query := `UPDATE playbooks SET name = ?, description = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, name, description, playbookID)
	if err != nil {
		return fmt.Errorf("updating playbook %s : %w", playbookID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for playbook %s : %w", playbookID, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no playbook found with id %s to update", playbookID)
	}
	return nil
}

// DeletePlaybook removes a playbook. Saved questions are removed by the
// ON DELETE CASCADE constraint.
func (repo *Repository) DeletePlaybook(playbookID uuid.UUID) error {
	query := `DELETE FROM playbooks WHERE id = ?`

	result, err := repo.dbConn.Exec(query, playbookID)
	if err != nil {
		return fmt.Errorf("deleting playbook %s : %w", playbookID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for playbook %s : %w", playbookID, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no playbook found with id %s to delete", playbookID)
	}
	return nil
}

// GetPlaybookQuestions retrieves all saved questions of a playbook.
func (repo *Repository) GetPlaybookQuestions(id uuid.UUID) ([]*domain.PlaybookQuestion, error) {
	var dbQuestions []*dbPlaybookQuestion
	query := `SELECT * FROM playbook_questions WHERE playbook_id = ? ORDER BY created_at ASC, id ASC`

	err := repo.dbConn.Select(&dbQuestions, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching questions for playbook %s : %w", id, err)
	}

	questions := make([]*domain.PlaybookQuestion, len(dbQuestions))
	for i, dbQ := range dbQuestions {
		questions[i] = &domain.PlaybookQuestion{
			ID:         dbQ.ID,
			PlaybookID: dbQ.PlaybookID,
			Question:   dbQ.Question,
			CreatedAt:  dbQ.CreatedAt,
		}
	}
	return questions, nil
}

// AddPlaybookQuestion saves a question text under a playbook and returns its UUID.
func (repo *Repository) AddPlaybookQuestion(playbookID uuid.UUID, question string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating question uuid : %w", err)
	}

	query := `INSERT INTO playbook_questions (id, playbook_id, question, created_at)
			  VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

	_, err = repo.dbConn.Exec(query, id, playbookID, question)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting question for playbook %s : %w", playbookID, err)
	}
	return id, nil
}

// RemovePlaybookQuestion deletes a saved question.
func (repo *Repository) RemovePlaybookQuestion(questionID uuid.UUID) error {
	query := `DELETE FROM playbook_questions WHERE id = ?`

	result, err := repo.dbConn.Exec(query, questionID)
	if err != nil {
		return fmt.Errorf("deleting question %s : %w", questionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for question %s : %w", questionID, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no question found with id %s to delete", questionID)
	}
	return nil
}
