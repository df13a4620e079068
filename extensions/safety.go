package extensions

import (
	"github.com/Shopify/go-lua"
)

// SafetyService is implemented by cores that let scripts edit the safety
// rules. It is optional; the safety sub-library is only registered when the
// ChatService also implements it.
type SafetyService interface {
	AddSafetyRule(pattern, matchType string, exclude bool) error
	RemoveSafetyRule(pattern, matchType string, exclude bool) error
	ClearSafetyRules()
}

func registerSafetyLibrary(l *lua.State, service ChatService) {
	safety, ok := service.(SafetyService)
	if !ok {
		return
	}

	l.Global("glyco")

	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	lua.NewLibrary(l, safetyLibrary(safety))

	l.SetField(-2, "safety")
	l.Pop(1)
}

// safetyLibrary returns Lua functions for editing the safety rules.
// Available under `glyco.safety`. Exclude rules refuse matching questions;
// include rules allow them when the default is deny.
func safetyLibrary(safety SafetyService) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		// add_rule adds a safety rule.
		//
		// @param pattern string The regex pattern.
		// @param match_type string The match type ("question" or "answer").
		// @param exclude boolean (optional) Whether this is an exclude rule. Defaults to true.
		{Name: "add_rule", Function: func(l *lua.State) int {
			pattern := lua.CheckString(l, 2)
			matchType := lua.CheckString(l, 3)
			exclude := true
			if l.Top() >= 4 {
				exclude = l.ToBoolean(4)
			}
			if err := safety.AddSafetyRule(pattern, matchType, exclude); err != nil {
				lua.Errorf(l, "adding safety rule : %s", err.Error())
				return 0
			}
			return 0
		}},
		// remove_rule removes a safety rule.
		//
		// @param pattern string The regex pattern.
		// @param match_type string The match type ("question" or "answer").
		// @param exclude boolean (optional) Whether this is an exclude rule. Defaults to true.
		{Name: "remove_rule", Function: func(l *lua.State) int {
			pattern := lua.CheckString(l, 2)
			matchType := lua.CheckString(l, 3)
			exclude := true
			if l.Top() >= 4 {
				exclude = l.ToBoolean(4)
			}
			if err := safety.RemoveSafetyRule(pattern, matchType, exclude); err != nil {
				lua.Errorf(l, "removing safety rule : %s", err.Error())
				return 0
			}
			return 0
		}},
		// clear_rules removes all safety rules.
		{Name: "clear_rules", Function: func(l *lua.State) int {
			safety.ClearSafetyRules()
			return 0
		}},
	}
}
