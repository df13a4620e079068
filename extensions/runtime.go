package extensions

import (
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

// ChatService is the surface of the application core that extensions are
// allowed to reach. Keeping it narrow means a script can log, read its
// settings, and nothing else.
type ChatService interface {
	// GetConfigDir returns the path to the application's configuration directory.
	GetConfigDir() (string, error)
	// WriteLog writes a log entry through the application's async log writer.
	WriteLog(level string, message string, options ...func(log *domain.Log) error) error
	// GetExtensionRepo returns the repository used for extension settings.
	GetExtensionRepo() (domain.ExtensionRepository, error)
}

// ExtensionLog is a single line captured from a script's print output.
type ExtensionLog struct {
	Time time.Time
	Text string
}

// Runtime holds a single extension's Lua state. Each enabled extension gets
// its own state; Mu serializes all access to it since lua.State is not safe
// for concurrent use.
type Runtime struct {
	Data     *domain.Extension
	LuaState *lua.State
	Mu       sync.Mutex
	Logs     []ExtensionLog
	OnLog    func(entry ExtensionLog) error
}

// restrictedGlobals are stripped from every state before any script runs.
// Extensions get math, table, and bit32 but no filesystem, process, or
// loader access.
var restrictedGlobals = []string{
	"os",
	"io",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"package",
	"debug",
	"collectgarbage",
	"string",
}

// PrepareState creates and sandboxes the Lua state, registers the glyco
// library and the exchange type, and runs the extension's source so its
// hook functions become available as globals.
func (runtime *Runtime) PrepareState(service ChatService, options []func(*Runtime) error) error {
	l := lua.NewState()
	lua.OpenLibraries(l)
	runtime.LuaState = l

	for _, name := range restrictedGlobals {
		l.PushNil()
		l.SetGlobal(name)
	}

	// The extension ID lives in the registry so library functions can
	// attribute log entries and settings to the right extension.
	l.PushString(runtime.Data.ID.String())
	l.SetField(lua.RegistryIndex, "extension_id")

	registerGlycoLibrary(l, service)
	RegisterExchangeType(runtime)
	RegisterCustomPrint(runtime)

	if runtime.OnLog == nil {
		runtime.OnLog = func(entry ExtensionLog) error {
			return service.WriteLog("INFO", entry.Text, domain.LogWithExtensionID(runtime.Data.ID))
		}
	}

	for _, option := range options {
		if err := option(runtime); err != nil {
			return fmt.Errorf("applying runtime option : %w", err)
		}
	}

	if runtime.Data.LuaContent != "" {
		if err := runtime.ExecuteLua(runtime.Data.LuaContent); err != nil {
			return fmt.Errorf("loading extension %s : %w", runtime.Data.Name, err)
		}
	}
	return nil
}

// ExecuteLua runs a chunk of Lua code in the extension's state.
func (runtime *Runtime) ExecuteLua(code string) error {
	if err := lua.DoString(runtime.LuaState, code); err != nil {
		return fmt.Errorf("executing lua : %w", err)
	}
	return nil
}

// CheckGlobalFunction reports whether the script defined a global function
// with the given name.
func (runtime *Runtime) CheckGlobalFunction(name string) bool {
	runtime.LuaState.Global(name)
	defer runtime.LuaState.Pop(1)
	return runtime.LuaState.IsFunction(-1)
}

// CallQuestionHook invokes the script's processQuestion function with the
// exchange, if the script defines one.
func (runtime *Runtime) CallQuestionHook(exchange *Exchange) error {
	return runtime.callHook("processQuestion", exchange)
}

// CallAnswerHook invokes the script's processAnswer function with the
// exchange, if the script defines one.
func (runtime *Runtime) CallAnswerHook(exchange *Exchange) error {
	return runtime.callHook("processAnswer", exchange)
}

func (runtime *Runtime) callHook(name string, exchange *Exchange) error {
	runtime.Mu.Lock()
	defer runtime.Mu.Unlock()

	l := runtime.LuaState
	l.Global(name)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return nil
	}

	l.PushUserData(exchange)
	lua.SetMetaTableNamed(l, "exchange")

	if err := l.ProtectedCall(1, 0, 0); err != nil {
		return fmt.Errorf("calling %s in %s : %w", name, runtime.Data.Name, err)
	}
	return nil
}

// getExtensionID retrieves the current extension's UUID from the Lua registry.
func getExtensionID(l *lua.State) uuid.UUID {
	l.Field(lua.RegistryIndex, "extension_id")
	defer l.Pop(1)

	idString, ok := l.ToString(-1)
	if !ok {
		return uuid.Nil
	}

	id, err := uuid.Parse(idString)
	if err != nil {
		return uuid.Nil
	}
	return id
}
