package extensions

import "github.com/Shopify/go-lua"

// RegisterType creates a new metatable in the Lua state and associates it with a name.
// It registers a set of functions as methods for the type and a `__tostring` metamethod.
// This is a generic helper for exposing Go types to Lua.
func RegisterType(l *lua.State, name string, functions map[string]lua.Function, toString func(l *lua.State) int) {
	lua.NewMetaTable(l, name)
	l.PushGoFunction(FunctionIndex(functions))
	l.SetField(-2, "__index")
	l.PushGoFunction(toString)
	l.SetField(-2, "__tostring")
	l.Pop(1)
}

// FunctionIndex returns a Lua function that acts as an `__index` metamethod.
// It looks up a field name in the provided functions map and pushes the corresponding
// function onto the stack if found.
func FunctionIndex(functions map[string]lua.Function) func(l *lua.State) int {
	return func(l *lua.State) int {
		field := lua.CheckString(l, 2)
		if function, ok := functions[field]; ok {
			l.PushGoFunction(function)
		} else {
			l.PushNil()
		}
		return 1
	}
}

// goValue converts the Lua value at the given index into a Go value.
// Tables become map[string]any or []any depending on their keys.
func goValue(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		number, _ := l.ToNumber(index)
		return number
	case lua.TypeString:
		str, _ := l.ToString(index)
		return str
	case lua.TypeTable:
		return parseTable(l, index, goValue)
	default:
		return nil
	}
}

// parseTable walks the table at the given index and converts it into either a
// []any (sequential integer keys) or a map[string]any. Empty tables convert
// to an empty map since Lua cannot distinguish the two.
func parseTable(l *lua.State, index int, convert func(*lua.State, int) any) any {
	index = l.AbsIndex(index)

	entries := make(map[string]any)
	list := make([]any, 0)
	isList := true

	l.PushNil()
	for l.Next(index) {
		value := convert(l, -1)
		switch l.TypeOf(-2) {
		case lua.TypeNumber:
			list = append(list, value)
		case lua.TypeString:
			isList = false
			if key, ok := l.ToString(-2); ok {
				entries[key] = value
			}
		}
		l.Pop(1)
	}

	if isList && len(list) > 0 {
		return list
	}
	return entries
}

// asMap coerces a converted Lua value into a map. Empty Lua tables arrive as
// empty slices or maps; anything else returns nil.
func asMap(val any) map[string]any {
	switch v := val.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) == 0 {
			return make(map[string]any)
		}
	}
	return nil
}
