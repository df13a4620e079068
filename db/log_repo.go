package db

import (
	"fmt"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.LogRepository = (*Repository)(nil)

// dbLog represents a log entry as stored in the database.
type dbLog struct {
	ID             uuid.UUID  `db:"id"`
	Timestamp      time.Time  `db:"timestamp"`
	Level          string     `db:"level"`
	Message        string     `db:"message"`
	Context        Metadata   `db:"context"`
	ConversationID *uuid.UUID `db:"conversation_id"`
	ExtensionID    *uuid.UUID `db:"extension_id"`
}

// toDomainLog converts a dbLog into a domain.Log.
func toDomainLog(dbL *dbLog) *domain.Log {
	return &domain.Log{
		ID:             dbL.ID,
		Timestamp:      dbL.Timestamp,
		Level:          dbL.Level,
		Message:        dbL.Message,
		Context:        map[string]any(dbL.Context),
		ConversationID: dbL.ConversationID,
		ExtensionID:    dbL.ExtensionID,
	}
}

// fromDomainLog converts a domain.Log into a dbLog for insertion.
func fromDomainLog(log *domain.Log) *dbLog {
	return &dbLog{
		ID:             log.ID,
		Timestamp:      log.Timestamp,
		Level:          log.Level,
		Message:        log.Message,
		Context:        Metadata(log.Context),
		ConversationID: log.ConversationID,
		ExtensionID:    log.ExtensionID,
	}
}

// InsertLog saves a new log entry.
func (repo *Repository) InsertLog(log *domain.Log) error {
	dbL := fromDomainLog(log)
	query := `INSERT INTO logs (id, timestamp, level, message, context, conversation_id, extension_id)
			  VALUES (:id, :timestamp, :level, :message, :context, :conversation_id, :extension_id)`

	_, err := repo.dbConn.NamedExec(query, dbL)
	if err != nil {
		return fmt.Errorf("inserting log %s : %w", log.ID, err)
	}
	return nil
}

// GetLogs retrieves all log entries, newest first.
func (repo *Repository) GetLogs() ([]*domain.Log, error) {
	var dbLogs []*dbLog
	query := `SELECT * FROM logs ORDER BY timestamp DESC, id DESC`

	err := repo.dbConn.Select(&dbLogs, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all logs : %w", err)
	}

	logs := make([]*domain.Log, len(dbLogs))
	for i, dbL := range dbLogs {
		logs[i] = toDomainLog(dbL)
	}
	return logs, nil
}
