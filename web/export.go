package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/glyco-app/glyco/domain"
	"github.com/yosssi/gohtml"
)

// handleExport renders a conversation transcript as XML or HTML based on the
// format query parameter. HTML is the default.
func (server *Server) handleExport(w http.ResponseWriter, r *http.Request) {
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

	switch r.URL.Query().Get("format") {
	case "xml":
		document, err := exportXML(conversation, messages)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write(document)
	case "html", "":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(exportHTML(conversation, messages))
	default:
		writeError(w, http.StatusBadRequest, errors.New("format must be xml or html"))
	}
}

// exportXML builds the transcript document with etree.
func exportXML(conversation *domain.Conversation, messages []*domain.Message) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("conversation")
	root.CreateAttr("id", conversation.ID.String())
	root.CreateAttr("title", conversation.Title)
	root.CreateAttr("created_at", conversation.CreatedAt.Format(time.RFC3339))

	for _, msg := range messages {
		element := root.CreateElement("message")
		element.CreateAttr("id", msg.ID.String())
		element.CreateAttr("role", msg.Role)
		element.CreateAttr("created_at", msg.CreatedAt.Format(time.RFC3339))
		element.CreateElement("content").SetText(msg.Content)
		if flagged, ok := msg.Metadata["flagged"].(bool); ok && flagged {
			element.CreateAttr("flagged", "true")
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing transcript : %w", err)
	}
	return out, nil
}

// exportHTML builds a standalone transcript page, pretty-printed with gohtml.
func exportHTML(conversation *domain.Conversation, messages []*domain.Message) []byte {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", htmlEscape(conversation.Title))
	b.WriteString("<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem}")
	b.WriteString(".user{background:#eef2ff;padding:.75rem;border-radius:.5rem;margin:.5rem 0}")
	b.WriteString(".assistant{background:#f0fdf4;padding:.75rem;border-radius:.5rem;margin:.5rem 0}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", htmlEscape(conversation.Title))
	fmt.Fprintf(&b, "<p>Exported %s</p>", time.Now().Format("2006-01-02 15:04"))

	for _, msg := range messages {
		fmt.Fprintf(&b, "<div class=\"%s\"><strong>%s</strong><p>%s</p></div>",
			htmlEscape(msg.Role), htmlEscape(msg.Role), htmlEscape(msg.Content))
	}
	b.WriteString("</body></html>")

	return gohtml.FormatBytes([]byte(b.String()))
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
