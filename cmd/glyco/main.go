package main

import (
	"log"
	"os"
	"path"

	"github.com/glyco-app/glyco"
	"github.com/glyco-app/glyco/db"
	"github.com/glyco-app/glyco/web"
)

func main() {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("[-] Resolving user config dir : %s", err.Error())
	}
	configDir := path.Join(userConfigDir, "glyco")

	app, err := glyco.New(
		glyco.WithConfigDir(configDir),
		glyco.WithCredentials(),
	)
	if err != nil {
		log.Fatalf("[-] Starting glyco : %s", err.Error())
	}

	conn, err := db.New(path.Join(configDir, "glyco.db"))
	if err != nil {
		log.Fatalf("[-] Opening database : %s", err.Error())
	}

	err = app.WithOptions(
		glyco.WithRepo(db.NewRepo(conn)),
		glyco.WithDefaultProvider(),
		glyco.WithExtensions(),
	)
	if err != nil {
		log.Fatalf("[-] Configuring glyco : %s", err.Error())
	}

	server := web.New(app)

	if app.Config.OpenBrowser {
		if err := app.OpenBrowser(); err != nil {
			log.Printf("[-] Opening browser : %s", err.Error())
		}
	}

	if app.Config.FirstRun {
		if err := app.Config.SetFirstRunDone(); err != nil {
			log.Printf("[-] Persisting first run flag : %s", err.Error())
		}
	}

	if err := server.Serve(); err != nil {
		log.Fatalf("[-] Serving : %s", err.Error())
	}
}
