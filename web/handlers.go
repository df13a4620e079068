package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/glyco-app/glyco"
	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError encodes an error as {"error": ...} with the given status code.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// pathID parses the {id} route variable as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

type conversationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID             uuid.UUID      `json:"id"`
	ConversationID uuid.UUID      `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func toConversationResponse(conversation *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:        conversation.ID,
		Title:     conversation.Title,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}
}

func toMessageResponse(msg *domain.Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Metadata:       msg.Metadata,
		CreatedAt:      msg.CreatedAt,
	}
}

func (server *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := server.app.Repo.GetConversations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	response := make([]conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, toConversationResponse(conversation))
	}
	writeJSON(w, http.StatusOK, response)
}

func (server *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	id, err := server.app.Repo.CreateConversation(req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (server *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conversation, err := server.app.Repo.GetConversation(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	messages, err := server.app.Repo.GetMessages(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	messageResponses := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		messageResponses = append(messageResponses, toMessageResponse(msg))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": toConversationResponse(conversation),
		"messages":     messageResponses,
	})
}

func (server *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, errors.New("title cannot be empty"))
		return
	}

	if err := server.app.Repo.RenameConversation(id, req.Title); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (server *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := server.app.Repo.DeleteConversation(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (server *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question cannot be empty"))
		return
	}

	answer, err := server.app.Ask(r.Context(), id, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, glyco.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, glyco.ErrConsentRequired):
			writeError(w, http.StatusForbidden, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(answer))
}

// handleSummary generates the full education plan for a conversation.
func (server *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	answer, err := server.app.Summarize(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, glyco.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, glyco.ErrConsentRequired):
			writeError(w, http.StatusForbidden, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(answer))
}

type profileRequest struct {
	DiabetesType     string   `json:"diabetes_type"`
	TherapyType      string   `json:"therapy_type"`
	InjectionsPerDay int      `json:"injections_per_day"`
	FastingRange     string   `json:"fasting_range"`
	HypoLastWeek     bool     `json:"hypo_last_week"`
	BurdenScore      int      `json:"burden_score"`
	Topics           []string `json:"topics"`
	Medications      string   `json:"medications"`
	Consent          bool     `json:"consent"`
}

func (server *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := server.app.Repo.GetProfile(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, profileRequest{
		DiabetesType:     profile.DiabetesType,
		TherapyType:      profile.TherapyType,
		InjectionsPerDay: profile.InjectionsPerDay,
		FastingRange:     profile.FastingRange,
		HypoLastWeek:     profile.HypoLastWeek,
		BurdenScore:      profile.BurdenScore,
		Topics:           profile.Topics,
		Medications:      profile.Medications,
		Consent:          profile.Consent,
	})
}

func (server *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := server.app.Repo.GetConversation(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	profile := &domain.PatientProfile{
		ConversationID:   id,
		DiabetesType:     req.DiabetesType,
		TherapyType:      req.TherapyType,
		InjectionsPerDay: req.InjectionsPerDay,
		FastingRange:     req.FastingRange,
		HypoLastWeek:     req.HypoLastWeek,
		BurdenScore:      req.BurdenScore,
		Topics:           req.Topics,
		Medications:      req.Medications,
		Consent:          req.Consent,
	}
	if err := server.app.Repo.UpsertProfile(profile); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type extensionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (server *Server) handleListExtensions(w http.ResponseWriter, r *http.Request) {
	exts, err := server.app.Repo.GetExtensions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	response := make([]extensionResponse, 0, len(exts))
	for _, ext := range exts {
		response = append(response, extensionResponse{
			ID:          ext.ID,
			Name:        ext.Name,
			Author:      ext.Author,
			Description: ext.Description,
			Enabled:     ext.Enabled,
			UpdatedAt:   ext.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// handleUpdateExtension toggles an extension or updates its Lua source.
// Either field may be omitted; enabling takes effect on the next restart of
// the extension set.
func (server *Server) handleUpdateExtension(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req struct {
		Enabled *bool   `json:"enabled"`
		LuaCode *string `json:"lua_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Enabled != nil {
		if err := server.app.Repo.SetExtensionEnabled(name, *req.Enabled); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}
	if req.LuaCode != nil {
		if err := server.app.Repo.UpdateExtensionLuaCodeByName(name, *req.LuaCode); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}

	if err := server.app.WithOptions(glyco.WithExtensions()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type playbookResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

func (server *Server) handleListPlaybooks(w http.ResponseWriter, r *http.Request) {
	playbooks, err := server.app.Repo.GetPlaybooks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	response := make([]playbookResponse, 0, len(playbooks))
	for _, playbook := range playbooks {
		response = append(response, playbookResponse{
			ID:          playbook.ID,
			Name:        playbook.Name,
			Description: playbook.Description,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (server *Server) handleCreatePlaybook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name cannot be empty"))
		return
	}

	id, err := server.app.Repo.CreatePlaybook(req.Name, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (server *Server) handleDeletePlaybook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := server.app.Repo.DeletePlaybook(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (server *Server) handleListPlaybookQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	questions, err := server.app.Repo.GetPlaybookQuestions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type questionResponse struct {
		ID       uuid.UUID `json:"id"`
		Question string    `json:"question"`
	}
	response := make([]questionResponse, 0, len(questions))
	for _, question := range questions {
		response = append(response, questionResponse{ID: question.ID, Question: question.Question})
	}
	writeJSON(w, http.StatusOK, response)
}

func (server *Server) handleAddPlaybookQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question cannot be empty"))
		return
	}

	questionID, err := server.app.Repo.AddPlaybookQuestion(id, req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": questionID})
}

func (server *Server) handleLaunchPlaybook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := server.app.Launch(r.Context(), id, req.ConversationID); err != nil {
		switch {
		case errors.Is(err, glyco.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, glyco.ErrConsentRequired):
			writeError(w, http.StatusForbidden, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "launched"})
}

func (server *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := server.app.Repo.GetLogs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type logResponse struct {
		ID             uuid.UUID  `json:"id"`
		Timestamp      time.Time  `json:"timestamp"`
		Level          string     `json:"level"`
		Message        string     `json:"message"`
		ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
		ExtensionID    *uuid.UUID `json:"extension_id,omitempty"`
	}
	response := make([]logResponse, 0, len(logs))
	for _, entry := range logs {
		response = append(response, logResponse{
			ID:             entry.ID,
			Timestamp:      entry.Timestamp,
			Level:          entry.Level,
			Message:        entry.Message,
			ConversationID: entry.ConversationID,
			ExtensionID:    entry.ExtensionID,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (server *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	conversations, err := server.app.Repo.CountConversations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	messages, err := server.app.Repo.CountMessages()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	flagged, err := server.app.Repo.CountFlagged()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachments, err := server.app.Repo.CountAttachments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"conversations": conversations,
		"messages":      messages,
		"flagged":       flagged,
		"attachments":   attachments,
	})
}
