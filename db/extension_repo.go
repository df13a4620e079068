package db

import (
	"fmt"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.ExtensionRepository = (*Repository)(nil)

// dbExtension represents an extension as stored in the database.
type dbExtension struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	SourceURL   string    `db:"source_url"`
	Author      string    `db:"author"`
	LuaContent  string    `db:"lua_content"`
	Enabled     bool      `db:"enabled"`
	Description string    `db:"description"`
	Settings    Metadata  `db:"settings"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toDomainExtension converts a dbExtension into a domain.Extension.
func toDomainExtension(dbExt *dbExtension) *domain.Extension {
	return &domain.Extension{
		ID:          dbExt.ID,
		Name:        dbExt.Name,
		SourceURL:   dbExt.SourceURL,
		Author:      dbExt.Author,
		LuaContent:  dbExt.LuaContent,
		Enabled:     dbExt.Enabled,
		Description: dbExt.Description,
		Settings:    map[string]any(dbExt.Settings),
		UpdatedAt:   dbExt.UpdatedAt,
	}
}

// GetExtensions retrieves all extensions from the database.
func (repo *Repository) GetExtensions() ([]*domain.Extension, error) {
	var dbExtensions []*dbExtension
	query := `SELECT * FROM extensions ORDER BY name ASC`

	err := repo.dbConn.Select(&dbExtensions, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all extensions : %w", err)
	}

	extensions := make([]*domain.Extension, len(dbExtensions))
	for i, dbExt := range dbExtensions {
		extensions[i] = toDomainExtension(dbExt)
	}
	return extensions, nil
}

// GetExtensionByName retrieves a single extension by its unique name.
func (repo *Repository) GetExtensionByName(name string) (*domain.Extension, error) {
	var dbExt dbExtension
	query := `SELECT * FROM extensions WHERE name = ?`

	err := repo.dbConn.Get(&dbExt, query, name)
	if err != nil {
		return nil, fmt.Errorf("getting extension %s : %w", name, err)
	}
	return toDomainExtension(&dbExt), nil
}

// CreateExtension stores a new extension. New extensions start enabled.
func (repo *Repository) CreateExtension(name, sourceURL, author, luaContent, description string, publishedAt time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating extension uuid : %w", err)
	}

	query := `INSERT INTO extensions (id, name, source_url, author, lua_content, enabled, description, updated_at)
			  VALUES (?, ?, ?, ?, ?, 1, ?, ?)`

	_, err = repo.dbConn.Exec(query, id, name, sourceURL, author, luaContent, description, publishedAt)
	if err != nil {
		return fmt.Errorf("inserting extension %s : %w", name, err)
	}
	return nil
}

// RemoveExtension deletes an extension by name.
func (repo *Repository) RemoveExtension(name string) error {
	query := `DELETE FROM extensions WHERE name = ?`

	result, err := repo.dbConn.Exec(query, name)
	if err != nil {
		return fmt.Errorf("deleting extension %s : %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for extension %s : %w", name, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no extension found with name %s to delete", name)
	}
	return nil
}

// SetExtensionEnabled toggles whether an extension participates in the ask pipeline.
func (repo *Repository) SetExtensionEnabled(name string, enabled bool) error {
	query := `UPDATE extensions SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`

	result, err := repo.dbConn.Exec(query, enabled, name)
	if err != nil {
		return fmt.Errorf("toggling extension %s : %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for extension %s : %w", name, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no extension found with name %s to toggle", name)
	}
	return nil
}

// GetExtensionLuaCodeByName retrieves the Lua source code of an extension.
func (repo *Repository) GetExtensionLuaCodeByName(name string) (string, error) {
	var luaContent string
	query := `SELECT lua_content FROM extensions WHERE name = ?`

	err := repo.dbConn.Get(&luaContent, query, name)
	if err != nil {
		return "", fmt.Errorf("getting lua code for extension %s : %w", name, err)
	}
	return luaContent, nil
}

// UpdateExtensionLuaCodeByName updates the Lua source code of an extension.
func (repo *Repository) UpdateExtensionLuaCodeByName(name string, code string) error {
	query := `UPDATE extensions SET lua_content = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`

	result, err := repo.dbConn.Exec(query, code, name)
	if err != nil {
		return fmt.Errorf("updating lua code for extension %s : %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for extension %s : %w", name, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no extension found with name %s to update", name)
	}
	return nil
}

// GetExtensionSettingsByUUID retrieves the settings of an extension by its UUID.
func (repo *Repository) GetExtensionSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	var settings Metadata
	query := `SELECT settings FROM extensions WHERE id = ?`

	err := repo.dbConn.Get(&settings, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting settings for extension %s : %w", id, err)
	}
	return map[string]any(settings), nil
}

// SetExtensionSettingsByUUID sets the settings of an extension by its UUID.
func (repo *Repository) SetExtensionSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	query := `UPDATE extensions SET settings = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := repo.dbConn.Exec(query, Metadata(settings), id)
	if err != nil {
		return fmt.Errorf("setting settings for extension %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for extension %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no extension found with id %s to update", id)
	}
	return nil
}
