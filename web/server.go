package web

import (
	"embed"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/glyco-app/glyco"
	"github.com/gorilla/mux"
)

//go:embed static
var staticFiles embed.FS

// Server wires the glyco App to an HTTP router.
type Server struct {
	app    *glyco.App
	router *mux.Router
}

// New creates a Server with all routes registered.
func New(app *glyco.App) *Server {
	server := &Server{
		app:    app,
		router: mux.NewRouter(),
	}

	r := server.router
	r.Use(server.loggingMiddleware)
	r.Use(brotliMiddleware)

	r.HandleFunc("/healthz", server.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/conversations", server.handleListConversations).Methods("GET")
	api.HandleFunc("/conversations", server.handleCreateConversation).Methods("POST")
	api.HandleFunc("/conversations/{id}", server.handleGetConversation).Methods("GET")
	api.HandleFunc("/conversations/{id}", server.handleRenameConversation).Methods("PUT")
	api.HandleFunc("/conversations/{id}", server.handleDeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id}/ask", server.handleAsk).Methods("POST")
	api.HandleFunc("/conversations/{id}/summary", server.handleSummary).Methods("POST")
	api.HandleFunc("/conversations/{id}/profile", server.handleGetProfile).Methods("GET")
	api.HandleFunc("/conversations/{id}/profile", server.handlePutProfile).Methods("PUT")
	api.HandleFunc("/conversations/{id}/export", server.handleExport).Methods("GET")
	api.HandleFunc("/conversations/{id}/attachments", server.handleListAttachments).Methods("GET")
	api.HandleFunc("/conversations/{id}/attachments", server.handleUploadAttachment).Methods("POST")
	api.HandleFunc("/attachments/{id}", server.handleGetAttachment).Methods("GET")
	api.HandleFunc("/attachments/{id}", server.handleDeleteAttachment).Methods("DELETE")
	api.HandleFunc("/extensions", server.handleListExtensions).Methods("GET")
	api.HandleFunc("/extensions/{name}", server.handleUpdateExtension).Methods("PUT")
	api.HandleFunc("/playbooks", server.handleListPlaybooks).Methods("GET")
	api.HandleFunc("/playbooks", server.handleCreatePlaybook).Methods("POST")
	api.HandleFunc("/playbooks/{id}", server.handleDeletePlaybook).Methods("DELETE")
	api.HandleFunc("/playbooks/{id}/questions", server.handleListPlaybookQuestions).Methods("GET")
	api.HandleFunc("/playbooks/{id}/questions", server.handleAddPlaybookQuestion).Methods("POST")
	api.HandleFunc("/playbooks/{id}/launch", server.handleLaunchPlaybook).Methods("POST")
	api.HandleFunc("/safety/rules", server.handleListSafetyRules).Methods("GET")
	api.HandleFunc("/safety/rules", server.handleAddSafetyRule).Methods("POST")
	api.HandleFunc("/safety/rules", server.handleRemoveSafetyRule).Methods("DELETE")
	api.HandleFunc("/logs", server.handleListLogs).Methods("GET")
	api.HandleFunc("/stats", server.handleStats).Methods("GET")

	r.PathPrefix("/").Handler(http.HandlerFunc(server.handleUI)).Methods("GET")

	return server
}

// ServeHTTP implements http.Handler.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

// Serve starts the async database writer and listens on the app's
// configured address and port. It blocks until the listener fails.
func (server *Server) Serve() error {
	go server.app.WriteToDB()

	addr := net.JoinHostPort(server.app.Addr, server.app.Port)
	log.Printf("[*] glyco listening on http://%s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		return fmt.Errorf("serving on %s : %w", addr, err)
	}
	return nil
}

// handleUI serves the embedded single-page interface.
func (server *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	content, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "UI not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(content)
}

func (server *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
