package glyco

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/glyco-app/glyco/domain"
	"github.com/glyco-app/glyco/extensions"
	"github.com/glyco-app/glyco/llm"
	"github.com/spf13/viper"
)

// WithOptions applies a series of configuration functions to the app instance.
// Each option function can modify the app configuration and return an error if it fails.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (app *App) WithOptions(options ...func(*App) error) error {
	for _, option := range options {
		err := option(app)
		if err != nil {
			return fmt.Errorf("applying option on glyco : %w", err)
		}
	}
	return nil
}

// WithConfigDir configures the app to use the specified configuration directory.
// It creates the directory if it doesn't exist and initializes the configuration file using Viper.
//
// Parameters:
//   - appConfigDir: Path to the configuration directory
//
// Returns:
//   - func(*App) error: Configuration function that sets up the config directory
func WithConfigDir(appConfigDir string) func(*App) error {
	return func(app *App) error {
		_, err := os.ReadDir(appConfigDir)
		if err != nil {
			if os.IsNotExist(err) {
				log.Println("[*] creating config dir")
				err := os.MkdirAll(appConfigDir, 0700)
				if err != nil {
					return fmt.Errorf("creating config dir %s: %w", appConfigDir, err)
				}
			} else {
				return fmt.Errorf("checking if directory exists %s: %w", appConfigDir, err)
			}
		}
		// At this point, the directory exists or was created successfully
		app.ConfigDir = appConfigDir

		// VIPER
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(appConfigDir)
		v.SetDefault("first_run", true)
		v.SetDefault("default_address", "127.0.0.1")
		v.SetDefault("default_port", "8844")
		v.SetDefault("provider", "openai")
		v.SetDefault("model", "gpt-4o-mini")
		v.SetDefault("fallback_model", "llama3.1")
		v.SetDefault("open_browser", true)
		err = v.ReadInConfig()
		if err != nil {
			// need to check if the error is config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// Config file is not found
				err = v.SafeWriteConfig()
				if err != nil {
					return fmt.Errorf("writing config file : %w", err)
				}
			} else {
				return fmt.Errorf("reading config file : %w", err)
			}
		}
		if err := v.Unmarshal(&app.Config); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}
		app.Config.viper = v

		app.Config.DesktopOS = runtime.GOOS
		app.Addr = app.Config.Address
		app.Port = app.Config.Port

		// Rewrite entire file from struct
		err = v.WriteConfig()
		if err != nil {
			return fmt.Errorf("writing config after unmarshalling : %w", err)
		}
		return nil
	}
}

// WithCredentials loads the provider API key from the .env file in the
// config dir (if present) and the GLYCO_API_KEY environment variable.
// The key is read once and held for the lifetime of the process.
func WithCredentials() func(*App) error {
	return func(app *App) error {
		key, err := LoadAPIKey(app.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading credentials : %w", err)
		}
		app.Config.APIKey = key
		if app.Config.Provider != "ollama" && app.Config.APIKey == "" {
			return fmt.Errorf("provider %s requires an API key but none was found in .env or GLYCO_API_KEY", app.Config.Provider)
		}
		return nil
	}
}

// WithProvider sets the chat completion provider directly.
func WithProvider(provider llm.Client) func(*App) error {
	return func(app *App) error {
		app.Provider = provider
		return nil
	}
}

// WithDefaultProvider builds the provider chain from the configuration:
// the configured provider first, with a local Ollama fallback.
func WithDefaultProvider() func(*App) error {
	return func(app *App) error {
		switch app.Config.Provider {
		case "ollama":
			app.Provider = llm.NewOllama(llm.DefaultOllamaBaseURL)
		case "openai":
			fallback := llm.NewOllama(llm.DefaultOllamaBaseURL)
			fallback.Model = app.Config.FallbackModel
			app.Provider = &llm.Fallback{
				Primary:   llm.NewOpenAI(llm.DefaultOpenAIBaseURL, app.Config.APIKey),
				Secondary: fallback,
			}
		default:
			return fmt.Errorf("unknown provider %s", app.Config.Provider)
		}
		return nil
	}
}

// WithExtension loads a single extension runtime into the app.
func WithExtension(ext *extensions.Runtime, options ...func(*extensions.Runtime) error) func(*App) error {
	return func(app *App) error {
		// Check if the map is nil and create if it is
		if app.Extensions == nil {
			app.Extensions = make(map[string]*extensions.Runtime)
		}
		// Check if the extension doesn't exist
		if _, ok := app.Extensions[ext.Data.Name]; !ok {
			err := ext.PrepareState(app, options)
			if err != nil {
				return fmt.Errorf("preparing extension %s : %w", ext.Data.Name, err)
			}
			app.Extensions[ext.Data.Name] = ext
		}
		return nil
	}
}

// WithExtensions loads all enabled extensions from the repository.
// Disabled extensions are skipped; a script that fails to load is logged
// and skipped rather than failing startup.
func WithExtensions(options ...func(*extensions.Runtime) error) func(*App) error {
	return func(app *App) error {
		if app.Repo == nil {
			return errors.New("loading extensions requires a repository")
		}
		app.Extensions = make(map[string]*extensions.Runtime)
		exts, err := app.Repo.GetExtensions()
		if err != nil {
			return fmt.Errorf("getting all extensions : %w", err)
		}
		for _, ext := range exts {
			if !ext.Enabled {
				continue
			}
			if _, ok := app.Extensions[ext.Name]; !ok {
				runtime := &extensions.Runtime{Data: ext}
				if err := runtime.PrepareState(app, options); err != nil {
					app.WriteLog("ERROR", fmt.Sprintf("Loading extension %s : %s", ext.Name, err.Error()))
					continue
				}
				app.Extensions[ext.Name] = runtime
			}
		}
		return nil
	}
}

// WithRepo will take the Repository interface and set it on the app,
// closing any previously set repository first.
func WithRepo(repo Repository) func(*App) error {
	return func(app *App) error {
		// First we need to check if there is a repo
		if app.Repo != nil {
			if err := app.Repo.Close(); err != nil {
				return err
			}
			app.Repo = nil
		}
		app.Repo = repo
		return nil
	}
}

// WithLogHandler takes a handler function that will be executed on each Log
func WithLogHandler(handler func(entry domain.Log) error) func(*App) error {
	return func(app *App) error {
		if app.OnLog != nil {
			return errors.New("app already has a log handler defined")
		}
		app.OnLog = handler
		return nil
	}
}

// WithMessageHandler takes a handler function that will be executed on each persisted message
func WithMessageHandler(handler func(msg domain.Message) error) func(*App) error {
	return func(app *App) error {
		if app.OnMessage != nil {
			return errors.New("app already has a message handler defined")
		}
		app.OnMessage = handler
		return nil
	}
}
