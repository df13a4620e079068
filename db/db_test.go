package db

import (
	"os"
	"testing"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func testConversation(t *testing.T, repo *Repository, title string) uuid.UUID {
	t.Helper()

	id, err := repo.CreateConversation(title)
	if err != nil {
		t.Fatalf("creating conversation: %v", err)
	}
	return id
}

func testMessage(t *testing.T, repo *Repository, conversationID uuid.UUID, role, content string, metadata map[string]any) uuid.UUID {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}

	msg := &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}

	err = repo.AppendMessage(msg)
	if err != nil {
		t.Fatalf("appending message: %v", err)
	}
	return id
}
