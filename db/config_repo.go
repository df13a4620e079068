package db

import (
	"fmt"

	"github.com/glyco-app/glyco/domain"
)

var _ domain.ConfigRepository = (*Repository)(nil)

// GetDisclaimer retrieves the disclaimer text appended to every answer.
func (repo *Repository) GetDisclaimer() (string, error) {
	var disclaimer string
	query := `SELECT disclaimer FROM app`

	err := repo.dbConn.Get(&disclaimer, query)
	if err != nil {
		return "", fmt.Errorf("getting disclaimer : %w", err)
	}
	return disclaimer, nil
}

// SetDisclaimer updates the disclaimer text.
func (repo *Repository) SetDisclaimer(text string) error {
	query := `UPDATE app SET disclaimer = ?`

	_, err := repo.dbConn.Exec(query, text)
	if err != nil {
		return fmt.Errorf("setting disclaimer : %w", err)
	}
	return nil
}

// GetTopics retrieves the catalogue of focus areas offered by the profile form.
func (repo *Repository) GetTopics() ([]string, error) {
	var topics StringList
	query := `SELECT topics FROM app`

	err := repo.dbConn.Get(&topics, query)
	if err != nil {
		return nil, fmt.Errorf("getting topics : %w", err)
	}
	return []string(topics), nil
}

// SetTopics updates the catalogue of focus areas.
func (repo *Repository) SetTopics(topics []string) error {
	query := `UPDATE app SET topics = ?`

	_, err := repo.dbConn.Exec(query, StringList(topics))
	if err != nil {
		return fmt.Errorf("setting topics : %w", err)
	}
	return nil
}
