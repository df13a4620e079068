package glyco

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/glyco-app/glyco/extensions"
	"github.com/glyco-app/glyco/llm"
	"github.com/google/uuid"
)

// Ask runs one question through the full pipeline: question modifiers
// (consent gate, safety rules, extension hooks), the provider call with the
// conversation history, then answer modifiers (extension hooks, disclaimer).
// Both sides of the exchange are queued for persistence and the assistant
// message is returned.
//
// A dropped question is never sent to the provider; it is persisted with a
// flagged metadata entry and answered with the standard refusal text.
func (app *App) Ask(ctx context.Context, conversationID uuid.UUID, text string) (*domain.Message, error) {
	if app.Repo == nil {
		return nil, errors.New("app has no repository")
	}

	if _, err := app.Repo.GetConversation(conversationID); err != nil {
		return nil, ErrConversationNotFound
	}

	questionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating uuid for question : %w", err)
	}

	exchange := &extensions.Exchange{
		ConversationID: conversationID,
		QuestionID:     questionID,
		Question:       text,
		Metadata:       make(map[string]any),
	}

	history, err := app.Repo.GetMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation history : %w", err)
	}

	// The first question names the conversation, even when it ends up
	// refused; both sides of a refused exchange are still persisted.
	if len(history) == 0 {
		if err := app.Repo.RenameConversation(conversationID, titleFromQuestion(exchange.Question)); err != nil {
			app.WriteLog("ERROR", fmt.Sprintf("Renaming conversation : %s", err.Error()), domain.LogWithConversationID(conversationID))
		}
	}

	if err := app.runQuestionModifiers(exchange); err != nil {
		if errors.Is(err, ErrDropped) {
			app.WriteLog("WARN", "Question dropped before reaching the provider", domain.LogWithConversationID(conversationID))
			return app.refuse(exchange)
		}
		return nil, err
	}

	answer, err := app.complete(ctx, exchange, history)
	if err != nil {
		app.WriteLog("ERROR", fmt.Sprintf("Provider call failed : %s", err.Error()), domain.LogWithConversationID(conversationID))
		return nil, fmt.Errorf("completing question : %w", err)
	}
	exchange.Answer = answer

	if err := app.runAnswerModifiers(exchange); err != nil {
		if errors.Is(err, ErrDropped) {
			app.WriteLog("WARN", "Answer dropped after the provider call", domain.LogWithConversationID(conversationID))
			return app.refuse(exchange)
		}
		return nil, err
	}

	return app.persistExchange(exchange, nil)
}

// SummaryQuestion is the canned user request persisted when an education
// plan is generated for a conversation.
const SummaryQuestion = "Please put together my personalized diabetes education plan."

// Summarize generates the full education plan for a conversation from its
// patient profile. The request runs through the same question and answer
// pipelines as a typed question, with the ten-section plan prompt in place
// of the regular system prompt.
func (app *App) Summarize(ctx context.Context, conversationID uuid.UUID) (*domain.Message, error) {
	if app.Repo == nil {
		return nil, errors.New("app has no repository")
	}

	if _, err := app.Repo.GetConversation(conversationID); err != nil {
		return nil, ErrConversationNotFound
	}

	questionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating uuid for plan request : %w", err)
	}

	exchange := &extensions.Exchange{
		ConversationID: conversationID,
		QuestionID:     questionID,
		Question:       SummaryQuestion,
		Metadata:       make(map[string]any),
	}

	history, err := app.Repo.GetMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation history : %w", err)
	}
	if len(history) == 0 {
		if err := app.Repo.RenameConversation(conversationID, "Education plan"); err != nil {
			app.WriteLog("ERROR", fmt.Sprintf("Renaming conversation : %s", err.Error()), domain.LogWithConversationID(conversationID))
		}
	}

	if err := app.runQuestionModifiers(exchange); err != nil {
		if errors.Is(err, ErrDropped) {
			app.WriteLog("WARN", "Plan request dropped before reaching the provider", domain.LogWithConversationID(conversationID))
			return app.refuse(exchange)
		}
		return nil, err
	}

	if app.Provider == nil {
		return nil, ErrProviderUndefined
	}
	profile, err := app.Repo.GetProfile(conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting profile : %w", err)
	}

	answer, err := app.Provider.Complete(ctx, &llm.Request{
		Model: app.Config.Model,
		Messages: []llm.Message{
			{Role: domain.RoleSystem, Content: BuildSummaryPrompt(profile)},
			{Role: domain.RoleUser, Content: exchange.Question},
		},
	})
	if err != nil {
		app.WriteLog("ERROR", fmt.Sprintf("Provider call failed : %s", err.Error()), domain.LogWithConversationID(conversationID))
		return nil, fmt.Errorf("completing plan request : %w", err)
	}
	exchange.Answer = answer

	if err := app.runAnswerModifiers(exchange); err != nil {
		if errors.Is(err, ErrDropped) {
			app.WriteLog("WARN", "Plan answer dropped after the provider call", domain.LogWithConversationID(conversationID))
			return app.refuse(exchange)
		}
		return nil, err
	}

	return app.persistExchange(exchange, nil)
}

// complete builds the provider request from the profile, the prior
// transcript, and the current question, and calls the provider.
func (app *App) complete(ctx context.Context, exchange *extensions.Exchange, history []*domain.Message) (string, error) {
	if app.Provider == nil {
		return "", ErrProviderUndefined
	}

	profile, err := app.Repo.GetProfile(exchange.ConversationID)
	if err != nil {
		return "", fmt.Errorf("getting profile : %w", err)
	}

	messages := []llm.Message{{Role: domain.RoleSystem, Content: BuildSystemPrompt(profile)}}
	for _, msg := range history {
		if msg.Role == domain.RoleUser || msg.Role == domain.RoleAssistant {
			messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
		}
	}
	messages = append(messages, llm.Message{Role: domain.RoleUser, Content: exchange.Question})

	return app.Provider.Complete(ctx, &llm.Request{
		Model:    app.Config.Model,
		Messages: messages,
	})
}

// refuse replaces the answer with the standard refusal text and persists the
// exchange with flagged metadata.
func (app *App) refuse(exchange *extensions.Exchange) (*domain.Message, error) {
	exchange.Answer = RefusalAnswer
	if exchange.Metadata == nil {
		exchange.Metadata = make(map[string]any)
	}
	exchange.Metadata["flagged"] = true
	return app.persistExchange(exchange, map[string]any{"flagged": true})
}

// persistExchange queues the question and answer messages for the async
// writer and returns the assistant message. questionMetadata may be nil.
func (app *App) persistExchange(exchange *extensions.Exchange, questionMetadata map[string]any) (*domain.Message, error) {
	now := time.Now()

	question := &domain.Message{
		ID:             exchange.QuestionID,
		ConversationID: exchange.ConversationID,
		Role:           domain.RoleUser,
		Content:        exchange.Question,
		Metadata:       questionMetadata,
		CreatedAt:      now,
	}

	answerID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating uuid for answer : %w", err)
	}
	answer := &domain.Message{
		ID:             answerID,
		ConversationID: exchange.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        exchange.Answer,
		Metadata:       exchange.Metadata,
		CreatedAt:      now,
	}

	app.DBWriteChannel <- question
	app.DBWriteChannel <- answer
	return answer, nil
}

// Launch asks every saved question of a playbook in an existing conversation.
// The conversation must already have a consented profile. Individual question
// failures other than a consent failure are logged and do not stop the
// remaining questions.
func (app *App) Launch(ctx context.Context, playbookID uuid.UUID, conversationID uuid.UUID) error {
	questions, err := app.Repo.GetPlaybookQuestions(playbookID)
	if err != nil {
		return fmt.Errorf("getting playbook questions : %w", err)
	}

	for _, question := range questions {
		if _, err := app.Ask(ctx, conversationID, question.Question); err != nil {
			if errors.Is(err, ErrConsentRequired) || errors.Is(err, ErrConversationNotFound) {
				return err
			}
			app.WriteLog("ERROR", fmt.Sprintf("Launching playbook question : %s", err.Error()), domain.LogWithConversationID(conversationID))
		}
	}

	return nil
}

// titleFromQuestion derives a conversation title from the first question.
// Truncation counts runes so a multi-byte question never produces an
// invalid title.
func titleFromQuestion(question string) string {
	title := strings.TrimSpace(question)
	if runes := []rune(title); len(runes) > 80 {
		title = string(runes[:77]) + "..."
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
