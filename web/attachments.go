package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

// maxAttachmentSize limits uploads to 10 MB.
const maxAttachmentSize = 10 << 20

// allowedAttachmentTypes are the detected media types accepted for upload.
// Markdown files sniff as text/plain and are covered by that entry.
var allowedAttachmentTypes = []string{
	"text/plain",
	"text/csv",
	"application/pdf",
	"text/markdown",
}

func (server *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := server.app.Repo.GetConversation(conversationID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, handler, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(data) > maxAttachmentSize {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("attachment exceeds 10 MB"))
		return
	}

	// The declared Content-Type header is ignored; only sniffed bytes count.
	detected := mimetype.Detect(data)
	contentType := detected.String()
	if !attachmentTypeAllowed(detected, handler.Filename) {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Errorf("attachment type %s is not allowed", contentType))
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachment := &domain.Attachment{
		ID:             id,
		ConversationID: conversationID,
		Filename:       path.Base(handler.Filename),
		ContentType:    contentType,
		Size:           int64(len(data)),
		Data:           data,
		CreatedAt:      time.Now(),
	}
	if err := server.app.Repo.InsertAttachment(attachment); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "content_type": contentType})
}

// attachmentTypeAllowed checks the sniffed type against the allow list.
// Markdown needs the extension check because its content sniffs as plain text.
func attachmentTypeAllowed(detected *mimetype.MIME, filename string) bool {
	for _, allowed := range allowedAttachmentTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	if strings.HasSuffix(strings.ToLower(filename), ".md") && detected.Is("text/plain") {
		return true
	}
	return false
}

func (server *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	attachments, err := server.app.Repo.GetAttachments(conversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type attachmentResponse struct {
		ID          uuid.UUID `json:"id"`
		Filename    string    `json:"filename"`
		ContentType string    `json:"content_type"`
		Size        int64     `json:"size"`
		CreatedAt   time.Time `json:"created_at"`
	}
	response := make([]attachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		response = append(response, attachmentResponse{
			ID:          attachment.ID,
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			CreatedAt:   attachment.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (server *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	attachment, err := server.app.Repo.GetAttachment(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	w.Write(attachment.Data)
}

func (server *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := server.app.Repo.DeleteAttachment(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
