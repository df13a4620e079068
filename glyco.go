// Package glyco implements a local-first diabetes education chat service.
// A single App instance owns the configuration, the SQLite-backed repository,
// the LLM provider chain, and the loaded Lua extensions. Questions move
// through a modifier pipeline before and after the provider call, and all
// persistence goes through an asynchronous database writer.
package glyco

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/glyco-app/glyco/domain"
	"github.com/glyco-app/glyco/extensions"
	"github.com/glyco-app/glyco/llm"
	"github.com/google/uuid"
)

// Repository aggregates every repository interface the application needs.
// *db.Repository satisfies it.
type Repository interface {
	domain.ConversationRepository
	domain.ProfileRepository
	domain.PlaybookRepository
	domain.ExtensionRepository
	domain.LogRepository
	domain.AttachmentRepository
	domain.ConfigRepository
	domain.StatsRepository
	Close() error
}

// App represents the core of the glyco application with all its active
// components and configuration.
type App struct {
	ConfigDir string // Directory holding config.yaml, .env, and the database file.
	Config    Config // Application configuration backed by viper.

	Repo     Repository // Data access layer.
	Provider llm.Client // Chat completion provider (possibly a failover chain).

	Addr string // Listen address for the web server.
	Port string // Listen port for the web server.

	Scope *Scope // Safety rules applied to every question.

	Extensions map[string]*extensions.Runtime // Loaded Lua extensions keyed by name.

	QuestionModifiers []QuestionModifierFunc // Pipeline run before the provider call.
	AnswerModifiers   []AnswerModifierFunc   // Pipeline run after the provider call.

	DBWriteChannel chan any // Queue for asynchronous database writes.

	OnLog     func(entry domain.Log) error   // Callback invoked after a log entry is persisted.
	OnMessage func(msg domain.Message) error // Callback invoked after a message is persisted.
}

// New creates an App with default listen address, safety scope, modifier
// pipelines, and write queue, then applies the given options in order.
func New(options ...func(*App) error) (*App, error) {
	app := &App{
		Addr:           "127.0.0.1",
		Port:           "8844",
		Scope:          DefaultScope(),
		Extensions:     make(map[string]*extensions.Runtime),
		DBWriteChannel: make(chan any, 100),
		QuestionModifiers: []QuestionModifierFunc{
			ConsentQuestionModifier,
			SafetyQuestionModifier,
			ExtensionsQuestionModifier,
		},
		AnswerModifiers: []AnswerModifierFunc{
			ExtensionsAnswerModifier,
			DisclaimerAnswerModifier,
		},
	}
	if err := app.WithOptions(options...); err != nil {
		return nil, err
	}
	return app, nil
}

// WriteToDB processes items from the DBWriteChannel and persists them.
// It runs as a goroutine for the lifetime of the App and is the only
// writer for messages and logs, keeping request handling off the
// database lock.
func (app *App) WriteToDB() {
	for item := range app.DBWriteChannel {
		switch item := item.(type) {
		case *domain.Message:
			if err := app.Repo.AppendMessage(item); err != nil {
				log.Printf("[-] Error while inserting message : %s", err.Error())
				continue
			}
			if app.OnMessage != nil {
				if err := app.OnMessage(*item); err != nil {
					log.Printf("[-] Error in message handler : %s", err.Error())
				}
			}
		case *domain.Log:
			if err := app.Repo.InsertLog(item); err != nil {
				log.Printf("[-] Error while inserting log : %s", err.Error())
				continue
			}
			if app.OnLog != nil {
				if err := app.OnLog(*item); err != nil {
					log.Printf("[-] Error in log handler : %s", err.Error())
				}
			}
		default:
			log.Printf("[-] Unknown item type in write queue : %T", item)
		}
	}
}

// WriteLog creates a log entry with the given level and message and queues
// it for persistence. Level must be one of DEBUG, INFO, WARN, ERROR, or
// FATAL. Options can attach a conversation or extension ID to the entry.
func (app *App) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL":
	default:
		return fmt.Errorf("invalid log level %s", level)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating uuid for log : %w", err)
	}

	entry := &domain.Log{
		ID:        id,
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}

	for _, option := range options {
		if err := option(entry); err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}

	app.DBWriteChannel <- entry
	return nil
}

// GetExtension returns the loaded extension runtime with the given name.
func (app *App) GetExtension(name string) (*extensions.Runtime, bool) {
	ext, ok := app.Extensions[name]
	return ext, ok
}

// GetConfigDir implements extensions.ChatService.
func (app *App) GetConfigDir() (string, error) {
	if app.ConfigDir == "" {
		return "", errors.New("app has no config dir")
	}
	return app.ConfigDir, nil
}

// GetExtensionRepo implements extensions.ChatService.
func (app *App) GetExtensionRepo() (domain.ExtensionRepository, error) {
	if app.Repo == nil {
		return nil, errors.New("app has no repository")
	}
	return app.Repo, nil
}

// URL returns the base address of the local web server.
func (app *App) URL() string {
	return fmt.Sprintf("http://%s:%s", app.Addr, app.Port)
}

// Close shuts down the write queue and the repository.
func (app *App) Close() error {
	close(app.DBWriteChannel)
	if app.Repo != nil {
		if err := app.Repo.Close(); err != nil {
			return fmt.Errorf("closing repository : %w", err)
		}
	}
	return nil
}
