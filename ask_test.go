package glyco

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/glyco-app/glyco/domain"
	"github.com/glyco-app/glyco/llm"
	"github.com/google/uuid"
)

// mockRepo is an in-memory Repository for pipeline tests. The mutex guards
// messages and logs, which the WriteToDB goroutine appends to.
type mockRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*domain.Conversation
	messages      []*domain.Message
	profiles      map[uuid.UUID]*domain.PatientProfile
	playbooks     map[uuid.UUID]*domain.Playbook
	questions     []*domain.PlaybookQuestion
	logs          []*domain.Log
	disclaimer    string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		conversations: make(map[uuid.UUID]*domain.Conversation),
		profiles:      make(map[uuid.UUID]*domain.PatientProfile),
		playbooks:     make(map[uuid.UUID]*domain.Playbook),
		disclaimer:    "This is education only, not medical advice.",
	}
}

func (m *mockRepo) CreateConversation(title string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	m.conversations[id] = &domain.Conversation{ID: id, Title: title}
	return id, nil
}

func (m *mockRepo) GetConversations() ([]*domain.Conversation, error) {
	var conversations []*domain.Conversation
	for _, conversation := range m.conversations {
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

func (m *mockRepo) GetConversation(id uuid.UUID) (*domain.Conversation, error) {
	conversation, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("no conversation found with id %s", id)
	}
	return conversation, nil
}

func (m *mockRepo) RenameConversation(id uuid.UUID, title string) error {
	conversation, ok := m.conversations[id]
	if !ok {
		return fmt.Errorf("no conversation found with id %s to rename", id)
	}
	conversation.Title = title
	return nil
}

func (m *mockRepo) DeleteConversation(id uuid.UUID) error {
	delete(m.conversations, id)
	return nil
}

func (m *mockRepo) AppendMessage(msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockRepo) GetMessages(conversationID uuid.UUID) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var messages []*domain.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (m *mockRepo) GetMessage(id uuid.UUID) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("no message found with id %s", id)
}

func (m *mockRepo) UpdateMessageMetadata(metadata map[string]any, ids ...uuid.UUID) error {
	return nil
}

func (m *mockRepo) UpsertProfile(profile *domain.PatientProfile) error {
	m.profiles[profile.ConversationID] = profile
	return nil
}

func (m *mockRepo) GetProfile(conversationID uuid.UUID) (*domain.PatientProfile, error) {
	profile, ok := m.profiles[conversationID]
	if !ok {
		return nil, fmt.Errorf("no profile found for conversation %s", conversationID)
	}
	return profile, nil
}

func (m *mockRepo) GetPlaybooks() ([]*domain.Playbook, error) {
	var playbooks []*domain.Playbook
	for _, playbook := range m.playbooks {
		playbooks = append(playbooks, playbook)
	}
	return playbooks, nil
}

func (m *mockRepo) CreatePlaybook(name string, description string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	m.playbooks[id] = &domain.Playbook{ID: id, Name: name, Description: description}
	return id, nil
}

func (m *mockRepo) UpdatePlaybook(playbookID uuid.UUID, name, description string) error { return nil }
func (m *mockRepo) DeletePlaybook(playbookID uuid.UUID) error                           { return nil }

func (m *mockRepo) GetPlaybookQuestions(id uuid.UUID) ([]*domain.PlaybookQuestion, error) {
	var questions []*domain.PlaybookQuestion
	for _, question := range m.questions {
		if question.PlaybookID == id {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

func (m *mockRepo) AddPlaybookQuestion(playbookID uuid.UUID, question string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	m.questions = append(m.questions, &domain.PlaybookQuestion{ID: id, PlaybookID: playbookID, Question: question})
	return id, nil
}

func (m *mockRepo) RemovePlaybookQuestion(questionID uuid.UUID) error { return nil }

func (m *mockRepo) GetExtensions() ([]*domain.Extension, error)                 { return nil, nil }
func (m *mockRepo) GetExtensionByName(name string) (*domain.Extension, error)   { return nil, nil }
func (m *mockRepo) RemoveExtension(name string) error                           { return nil }
func (m *mockRepo) SetExtensionEnabled(name string, enabled bool) error         { return nil }
func (m *mockRepo) GetExtensionLuaCodeByName(name string) (string, error)       { return "", nil }
func (m *mockRepo) UpdateExtensionLuaCodeByName(name string, code string) error { return nil }
func (m *mockRepo) CreateExtension(name, sourceURL, author, luaContent, description string, publishedAt time.Time) error {
	return nil
}
func (m *mockRepo) GetExtensionSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	return make(map[string]any), nil
}
func (m *mockRepo) SetExtensionSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	return nil
}

func (m *mockRepo) InsertLog(entry *domain.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *mockRepo) GetLogs() ([]*domain.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs, nil
}

func (m *mockRepo) InsertAttachment(attachment *domain.Attachment) error { return nil }
func (m *mockRepo) GetAttachments(conversationID uuid.UUID) ([]*domain.Attachment, error) {
	return nil, nil
}
func (m *mockRepo) GetAttachment(id uuid.UUID) (*domain.Attachment, error) { return nil, nil }
func (m *mockRepo) DeleteAttachment(id uuid.UUID) error                    { return nil }

func (m *mockRepo) GetDisclaimer() (string, error)    { return m.disclaimer, nil }
func (m *mockRepo) SetDisclaimer(text string) error   { m.disclaimer = text; return nil }
func (m *mockRepo) GetTopics() ([]string, error)      { return nil, nil }
func (m *mockRepo) SetTopics(topics []string) error   { return nil }
func (m *mockRepo) CountConversations() (int, error)  { return len(m.conversations), nil }
func (m *mockRepo) CountMessages() (int, error)       { return len(m.messages), nil }
func (m *mockRepo) CountFlagged() (int, error)        { return 0, nil }
func (m *mockRepo) CountAttachments() (int, error)    { return 0, nil }
func (m *mockRepo) Close() error                      { return nil }

// stubProvider records the request and returns a fixed answer.
type stubProvider struct {
	lastRequest *llm.Request
	answer      string
	err         error
}

func (s *stubProvider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	s.lastRequest = req
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func setupTestApp(t *testing.T) (*App, *mockRepo, *stubProvider) {
	t.Helper()

	repo := newMockRepo()
	provider := &stubProvider{answer: "Carb counting matches insulin to food."}

	app, err := New(
		WithRepo(repo),
		WithProvider(provider),
	)
	if err != nil {
		t.Fatalf("creating app : %v", err)
	}
	return app, repo, provider
}

// testConsentedConversation creates a conversation with a consented profile.
func testConsentedConversation(t *testing.T, repo *mockRepo) uuid.UUID {
	t.Helper()

	id, err := repo.CreateConversation("New conversation")
	if err != nil {
		t.Fatalf("creating conversation : %v", err)
	}
	err = repo.UpsertProfile(&domain.PatientProfile{
		ConversationID:   id,
		DiabetesType:     "Type 1",
		TherapyType:      "Basal-bolus injections",
		InjectionsPerDay: 4,
		FastingRange:     "80-130 mg/dL",
		Topics:           []string{"Low-glucose safety"},
		Medications:      "Metformin oral, Lantus injection",
		Consent:          true,
	})
	if err != nil {
		t.Fatalf("upserting profile : %v", err)
	}
	return id
}

// drainMessages receives from the write queue until both sides of an
// exchange have arrived, skipping log entries.
func drainMessages(t *testing.T, app *App) []*domain.Message {
	t.Helper()

	var messages []*domain.Message
	for len(messages) < 2 {
		select {
		case item := <-app.DBWriteChannel:
			if msg, ok := item.(*domain.Message); ok {
				messages = append(messages, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for messages on the write queue")
		}
	}
	return messages
}

func TestAsk(t *testing.T) {
	t.Run("should return an error for an unknown conversation", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		_, err := app.Ask(context.Background(), uuid.Max, "what is carb counting?")
		if !errors.Is(err, ErrConversationNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConversationNotFound, err)
		}
	})

	t.Run("should require consent before asking", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)

		id, err := repo.CreateConversation("New conversation")
		if err != nil {
			t.Fatalf("creating conversation : %v", err)
		}

		_, err = app.Ask(context.Background(), id, "what is carb counting?")
		if !errors.Is(err, ErrConsentRequired) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConsentRequired, err)
		}

		err = repo.UpsertProfile(&domain.PatientProfile{ConversationID: id, Consent: false})
		if err != nil {
			t.Fatalf("upserting profile : %v", err)
		}

		_, err = app.Ask(context.Background(), id, "what is carb counting?")
		if !errors.Is(err, ErrConsentRequired) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConsentRequired, err)
		}
	})

	t.Run("should answer a question and append the disclaimer", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		answer, err := app.Ask(context.Background(), id, "what is carb counting?")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if !strings.Contains(answer.Content, provider.answer) {
			t.Fatalf("\nwanted:\nanswer containing %q\ngot:\n%q", provider.answer, answer.Content)
		}
		if !strings.Contains(answer.Content, repo.disclaimer) {
			t.Fatalf("\nwanted:\nanswer containing the disclaimer\ngot:\n%q", answer.Content)
		}
	})

	t.Run("should send the profile in the system prompt", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		_, err := app.Ask(context.Background(), id, "what is carb counting?")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if provider.lastRequest == nil || len(provider.lastRequest.Messages) == 0 {
			t.Fatalf("wanted a provider request with messages")
		}
		system := provider.lastRequest.Messages[0]
		if system.Role != domain.RoleSystem {
			t.Fatalf("\nwanted:\nsystem\ngot:\n%s", system.Role)
		}
		for _, want := range []string{"Type 1", "Basal-bolus injections", "NO dosing suggestions"} {
			if !strings.Contains(system.Content, want) {
				t.Fatalf("\nwanted:\nsystem prompt containing %q\ngot:\n%q", want, system.Content)
			}
		}
	})

	t.Run("should title the conversation after the first question", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		question := "what is carb counting?"
		if _, err := app.Ask(context.Background(), id, question); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		conversation, err := repo.GetConversation(id)
		if err != nil {
			t.Fatalf("getting conversation : %v", err)
		}
		if conversation.Title != question {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", question, conversation.Title)
		}
	})

	t.Run("should refuse a dosing question without calling the provider", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		answer, err := app.Ask(context.Background(), id, "How many units of insulin should I take tonight?")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if answer.Content != RefusalAnswer {
			t.Fatalf("\nwanted:\nthe refusal answer\ngot:\n%q", answer.Content)
		}
		if flagged, ok := answer.Metadata["flagged"].(bool); !ok || !flagged {
			t.Fatalf("\nwanted:\nflagged metadata\ngot:\n%v", answer.Metadata)
		}
		if provider.lastRequest != nil {
			t.Fatalf("wanted no provider call for a dropped question")
		}
	})

	t.Run("should title the conversation when the first question is refused", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		question := "How many units of insulin should I take tonight?"
		answer, err := app.Ask(context.Background(), id, question)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if answer.Content != RefusalAnswer {
			t.Fatalf("\nwanted:\nthe refusal answer\ngot:\n%q", answer.Content)
		}

		conversation, err := repo.GetConversation(id)
		if err != nil {
			t.Fatalf("getting conversation : %v", err)
		}
		if conversation.Title != question {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", question, conversation.Title)
		}
	})

	t.Run("should queue both sides of the exchange for persistence", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		if _, err := app.Ask(context.Background(), id, "what is carb counting?"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		messages := drainMessages(t, app)
		if messages[0].Role != domain.RoleUser || messages[1].Role != domain.RoleAssistant {
			t.Fatalf("\nwanted:\nuser then assistant\ngot:\n%s then %s", messages[0].Role, messages[1].Role)
		}
		if messages[0].ConversationID != id {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", id, messages[0].ConversationID)
		}
	})

	t.Run("should surface provider failures", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)
		provider.err = errors.New("provider unavailable")

		_, err := app.Ask(context.Background(), id, "what is carb counting?")
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestLaunch(t *testing.T) {
	t.Run("should ask every saved question of the playbook", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		playbookID, err := repo.CreatePlaybook("Basics", "Starter questions")
		if err != nil {
			t.Fatalf("creating playbook : %v", err)
		}
		for _, question := range []string{"what is carb counting?", "what are ADA glucose targets?"} {
			if _, err := repo.AddPlaybookQuestion(playbookID, question); err != nil {
				t.Fatalf("adding playbook question : %v", err)
			}
		}

		go app.WriteToDB()

		if err := app.Launch(context.Background(), playbookID, id); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if provider.lastRequest == nil {
			t.Fatalf("wanted the provider to be called")
		}
	})

	t.Run("should fail without a consented conversation", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)

		id, err := repo.CreateConversation("New conversation")
		if err != nil {
			t.Fatalf("creating conversation : %v", err)
		}
		playbookID, err := repo.CreatePlaybook("Basics", "Starter questions")
		if err != nil {
			t.Fatalf("creating playbook : %v", err)
		}
		if _, err := repo.AddPlaybookQuestion(playbookID, "what is carb counting?"); err != nil {
			t.Fatalf("adding playbook question : %v", err)
		}

		err = app.Launch(context.Background(), playbookID, id)
		if !errors.Is(err, ErrConsentRequired) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConsentRequired, err)
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Run("should request the full education plan", func(t *testing.T) {
		app, repo, provider := setupTestApp(t)
		id := testConsentedConversation(t, repo)
		provider.answer = "1) **Disclaimer** ..."

		answer, err := app.Summarize(context.Background(), id)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if provider.lastRequest == nil || len(provider.lastRequest.Messages) != 2 {
			t.Fatalf("wanted a provider request with a system prompt and the plan request")
		}
		system := provider.lastRequest.Messages[0]
		for _, want := range []string{"ADA Glycemic Targets", "Buccal Insulin Films", "Medication Education"} {
			if !strings.Contains(system.Content, want) {
				t.Fatalf("\nwanted:\nsystem prompt containing %q\ngot:\n%q", want, system.Content)
			}
		}
		if provider.lastRequest.Messages[1].Content != SummaryQuestion {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", SummaryQuestion, provider.lastRequest.Messages[1].Content)
		}
		if !strings.Contains(answer.Content, repo.disclaimer) {
			t.Fatalf("\nwanted:\nanswer containing the disclaimer\ngot:\n%q", answer.Content)
		}
	})

	t.Run("should title a fresh conversation as an education plan", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)
		id := testConsentedConversation(t, repo)

		if _, err := app.Summarize(context.Background(), id); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		conversation, err := repo.GetConversation(id)
		if err != nil {
			t.Fatalf("getting conversation : %v", err)
		}
		if conversation.Title != "Education plan" {
			t.Fatalf("\nwanted:\nEducation plan\ngot:\n%q", conversation.Title)
		}
	})

	t.Run("should require consent", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)

		id, err := repo.CreateConversation("New conversation")
		if err != nil {
			t.Fatalf("creating conversation : %v", err)
		}

		_, err = app.Summarize(context.Background(), id)
		if !errors.Is(err, ErrConsentRequired) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConsentRequired, err)
		}
	})

	t.Run("should return an error for an unknown conversation", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		_, err := app.Summarize(context.Background(), uuid.Max)
		if !errors.Is(err, ErrConversationNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrConversationNotFound, err)
		}
	})
}

func TestTitleFromQuestion(t *testing.T) {
	t.Run("should keep short questions as-is", func(t *testing.T) {
		got := titleFromQuestion("  what is carb counting?  ")
		if got != "what is carb counting?" {
			t.Fatalf("\nwanted:\nwhat is carb counting?\ngot:\n%q", got)
		}
	})

	t.Run("should fall back for an empty question", func(t *testing.T) {
		got := titleFromQuestion("   ")
		if got != "New conversation" {
			t.Fatalf("\nwanted:\nNew conversation\ngot:\n%q", got)
		}
	})

	t.Run("should truncate long questions without splitting runes", func(t *testing.T) {
		question := strings.Repeat("血糖", 50)
		got := titleFromQuestion(question)

		want := string([]rune(question)[:77]) + "..."
		if got != want {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", want, got)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("wanted a valid utf-8 title\ngot: %q", got)
		}
	})
}

func TestWriteLog(t *testing.T) {
	t.Run("should reject invalid levels", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		if err := app.WriteLog("TRACE", "nope"); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should persist entries through the write queue", func(t *testing.T) {
		app, repo, _ := setupTestApp(t)

		go app.WriteToDB()

		if err := app.WriteLog("INFO", "hello"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		deadline := time.Now().Add(time.Second)
		var logs []*domain.Log
		for len(logs) == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for the log entry")
			}
			time.Sleep(10 * time.Millisecond)
			logs, _ = repo.GetLogs()
		}
		if logs[0].Message != "hello" || logs[0].Level != "INFO" {
			t.Fatalf("\nwanted:\nINFO hello\ngot:\n%s %s", logs[0].Level, logs[0].Message)
		}
		if logs[0].Timestamp.IsZero() {
			t.Fatalf("wanted the entry stamped with the creation time")
		}
	})
}
