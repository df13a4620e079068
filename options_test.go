package glyco

import (
	"os"
	"path"
	"testing"
)

func TestWithConfigDir(t *testing.T) {
	t.Run("should create the dir and write defaults", func(t *testing.T) {
		configDir := path.Join(t.TempDir(), "glyco")

		app, err := New(WithConfigDir(configDir))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if _, err := os.Stat(path.Join(configDir, "config.yaml")); err != nil {
			t.Fatalf("\nwanted:\nconfig.yaml to exist\ngot:\n%v", err)
		}

		if app.Addr != "127.0.0.1" || app.Port != "8844" {
			t.Fatalf("\nwanted:\n127.0.0.1:8844\ngot:\n%s:%s", app.Addr, app.Port)
		}
		if app.Config.Provider != "openai" {
			t.Fatalf("\nwanted:\nopenai\ngot:\n%s", app.Config.Provider)
		}
		if !app.Config.FirstRun {
			t.Fatalf("wanted first_run to default to true")
		}
	})
}

func TestLoadAPIKey(t *testing.T) {
	t.Run("should read the key from the .env file", func(t *testing.T) {
		configDir := t.TempDir()
		envContent := "GLYCO_API_KEY=sk-from-file\n"
		if err := os.WriteFile(path.Join(configDir, ".env"), []byte(envContent), 0600); err != nil {
			t.Fatalf("writing .env : %v", err)
		}

		key, err := LoadAPIKey(configDir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if key != "sk-from-file" {
			t.Fatalf("\nwanted:\nsk-from-file\ngot:\n%s", key)
		}
	})

	t.Run("should prefer the environment variable over the file", func(t *testing.T) {
		configDir := t.TempDir()
		envContent := "GLYCO_API_KEY=sk-from-file\n"
		if err := os.WriteFile(path.Join(configDir, ".env"), []byte(envContent), 0600); err != nil {
			t.Fatalf("writing .env : %v", err)
		}
		t.Setenv("GLYCO_API_KEY", "sk-from-env")

		key, err := LoadAPIKey(configDir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if key != "sk-from-env" {
			t.Fatalf("\nwanted:\nsk-from-env\ngot:\n%s", key)
		}
	})

	t.Run("should accept the legacy variable name", func(t *testing.T) {
		configDir := t.TempDir()
		envContent := "OPENAI_API_KEY=sk-legacy\n"
		if err := os.WriteFile(path.Join(configDir, ".env"), []byte(envContent), 0600); err != nil {
			t.Fatalf("writing .env : %v", err)
		}

		key, err := LoadAPIKey(configDir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if key != "sk-legacy" {
			t.Fatalf("\nwanted:\nsk-legacy\ngot:\n%s", key)
		}
	})

	t.Run("should return empty without a file or variable", func(t *testing.T) {
		key, err := LoadAPIKey(t.TempDir())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if key != "" {
			t.Fatalf("\nwanted:\nempty key\ngot:\n%s", key)
		}
	})
}

func TestWithCredentials(t *testing.T) {
	t.Run("should fail when a key-requiring provider has no key", func(t *testing.T) {
		configDir := path.Join(t.TempDir(), "glyco")
		t.Setenv("GLYCO_API_KEY", "")

		_, err := New(
			WithConfigDir(configDir),
			WithCredentials(),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should start cleanly with a key", func(t *testing.T) {
		configDir := path.Join(t.TempDir(), "glyco")
		t.Setenv("GLYCO_API_KEY", "sk-test")

		app, err := New(
			WithConfigDir(configDir),
			WithCredentials(),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if app.Config.APIKey != "sk-test" {
			t.Fatalf("\nwanted:\nsk-test\ngot:\n%s", app.Config.APIKey)
		}
	})
}
