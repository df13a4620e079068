package extensions

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

// registerGlycoLibrary registers the `glyco` global library and its
// sub-libraries into the Lua state. This is the main entry point for exposing
// the application's functionality to Lua scripts.
func registerGlycoLibrary(l *lua.State, service ChatService) {
	funcs := []lua.RegistryFunction{
		// log writes a message to the application's log.
		//
		// @param message string The message to log.
		// @param level string (optional) The log level (e.g., "INFO", "WARN", "ERROR").
		// Defaults to "INFO".
		{Name: "log", Function: func(l *lua.State) int {
			message := lua.CheckString(l, 2)
			level := lua.OptString(l, 3, "INFO")
			if extID := getExtensionID(l); extID != uuid.Nil {
				err := service.WriteLog(level, message, domain.LogWithExtensionID(extID))
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			} else {
				err := service.WriteLog(level, message)
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			}
			return 0
		}},
		// config returns the path to the application's configuration directory.
		//
		// @return string The configuration directory path.
		{Name: "config", Function: func(l *lua.State) int {
			config, err := service.GetConfigDir()
			if err != nil {
				l.PushString("")
				return 1
			}
			l.PushString(config)
			return 1
		}},
	}

	lua.NewLibrary(l, funcs)
	l.SetGlobal("glyco")

	registerSettingsLibrary(l, service)
	registerStringsLibrary(l)
	registerUtilsLibrary(l)
	registerCryptoLibrary(l)
	registerEncodingLibrary(l)
	registerRandomLibrary(l)
	registerSafetyLibrary(l, service)
}

// RegisterCustomPrint overrides the default Lua `print` function.
// The new function captures the output and forwards it to the extension's
// log, making it visible in the conversation UI.
func RegisterCustomPrint(runtime *Runtime) {
	printFunc := func(l *lua.State) int {
		n := l.Top()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			switch {
			case l.IsString(i):
				parts = append(parts, lua.CheckString(l, i))
			case l.IsUserData(i):
				if str, ok := lua.ToStringMeta(l, i); ok {
					parts = append(parts, str)
				}
			default:
				parts = append(parts, fmt.Sprintf("%v", goValue(l, i)))
			}
		}

		entry := ExtensionLog{Time: time.Now(), Text: strings.Join(parts, "\t")}
		runtime.Logs = append(runtime.Logs, entry)
		if runtime.OnLog != nil {
			if err := runtime.OnLog(entry); err != nil {
				log.Print(err)
			}
		}
		return 0
	}
	runtime.LuaState.Register("print", printFunc)
}
