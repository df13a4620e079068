package glyco

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule represents a single filtering rule in the safety scope.
// It contains a compiled regular expression and the type of text it matches.
type Rule struct {
	Pattern   *regexp.Regexp // Compiled regular expression pattern
	MatchType string         // Type of matching: "question" or "answer"
}

// Scope represents the inclusion/exclusion rules and default behavior for
// filtering questions and answers. Exclusion rules catch requests the
// assistant must refuse, such as dosing or insulin adjustment questions.
type Scope struct {
	IncludeRules map[string]Rule // Map of inclusion rules, key format: "pattern|matchType"
	ExcludeRules map[string]Rule // Map of exclusion rules, key format: "pattern|matchType"
	DefaultAllow bool            // Default behavior for items not matching any rule
}

// NewScope creates a new Scope with the specified default behavior.
//
// Parameters:
//   - defaultAllow: Whether to allow items that don't match any rules
//
// Returns:
//   - *Scope: New scope instance with empty rule sets
func NewScope(defaultAllow bool) *Scope {
	return &Scope{
		IncludeRules: make(map[string]Rule),
		ExcludeRules: make(map[string]Rule),
		DefaultAllow: defaultAllow,
	}
}

// DefaultScope returns the scope glyco starts with: allow by default, with
// exclusion rules refusing dosing requests and insulin adjustment requests.
// The rules match requests for specific amounts, not mentions of the words,
// so "what is a basal dose" passes while "how many units should I take" is
// refused.
func DefaultScope() *Scope {
	scope := NewScope(true)

	rules := []string{
		`(?i)how (much|many)\s+(units?|insulin|mg|milligrams?)`,
		`(?i)(should|can|do) i (take|inject|use)\s+\d+`,
		`(?i)(adjust|change|increase|decrease|raise|lower)( my)? (dose|dosage|insulin|basal|bolus)`,
		`(?i)what('s| is) the (right|correct|proper) (dose|dosage|amount)( of| for)`,
		`(?i)(dose|dosage) (for|of) (me|my)`,
		`(?i)correction factor for me`,
		`(?i)how many carbs per unit`,
	}

	for _, pattern := range rules {
		// Patterns are compile-checked by tests; an invalid built-in rule is a bug.
		if err := scope.AddRule(pattern, "question", true); err != nil {
			panic(fmt.Sprintf("invalid built-in safety rule %q : %s", pattern, err))
		}
	}

	return scope
}

// MatchesString determines if a given string is in scope based on matchType
func (s *Scope) MatchesString(input string, matchType string) bool {
	matchType = strings.ToLower(matchType)

	// Validate matchType
	if matchType != "question" && matchType != "answer" {
		return s.DefaultAllow
	}

	target := input

	// Check exclusion rules first
	for _, rule := range s.ExcludeRules {
		if rule.MatchType != matchType {
			continue
		}
		if rule.Pattern.MatchString(target) {
			return false // Denied by exclude rule
		}
	}

	// Check inclusion rules
	for _, rule := range s.IncludeRules {
		if rule.MatchType != matchType {
			continue
		}
		if rule.Pattern.MatchString(target) {
			return true // Allowed by include rule
		}
	}

	// Default behavior
	return s.DefaultAllow
}

// ClearRules clears all inclusion and exclusion rules from the scope
func (s *Scope) ClearRules() {
	s.IncludeRules = make(map[string]Rule)
	s.ExcludeRules = make(map[string]Rule)
}

// AddRule adds a rule to the scope
func (s *Scope) AddRule(pattern, matchType string, exclude bool) error {
	matchType = strings.ToLower(matchType)
	if matchType != "question" && matchType != "answer" {
		return fmt.Errorf("invalid match type: %s", matchType)
	}

	trimmedPattern := strings.TrimPrefix(pattern, "-")
	compiled, err := regexp.Compile(trimmedPattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	rule := Rule{
		Pattern:   compiled,
		MatchType: matchType,
	}
	key := fmt.Sprintf("%s|%s", compiled.String(), matchType)

	if exclude {
		if _, exists := s.ExcludeRules[key]; exists {
			return fmt.Errorf("rule already exists in exclude list")
		}
		s.ExcludeRules[key] = rule
	} else {
		if _, exists := s.IncludeRules[key]; exists {
			return fmt.Errorf("rule already exists in include list")
		}
		s.IncludeRules[key] = rule
	}

	return nil
}

// AddSafetyRule implements extensions.SafetyService.
func (app *App) AddSafetyRule(pattern, matchType string, exclude bool) error {
	return app.Scope.AddRule(pattern, matchType, exclude)
}

// RemoveSafetyRule implements extensions.SafetyService.
func (app *App) RemoveSafetyRule(pattern, matchType string, exclude bool) error {
	return app.Scope.RemoveRule(pattern, matchType, exclude)
}

// ClearSafetyRules implements extensions.SafetyService.
func (app *App) ClearSafetyRules() {
	app.Scope.ClearRules()
}

// RemoveRule removes a rule from the scope
func (s *Scope) RemoveRule(pattern, matchType string, exclude bool) error {
	matchType = strings.ToLower(matchType)
	key := fmt.Sprintf("%s|%s", strings.TrimPrefix(pattern, "-"), matchType)

	if exclude {
		if _, exists := s.ExcludeRules[key]; !exists {
			return fmt.Errorf("rule not found in exclude list")
		}
		delete(s.ExcludeRules, key)
	} else {
		if _, exists := s.IncludeRules[key]; !exists {
			return fmt.Errorf("rule not found in include list")
		}
		delete(s.IncludeRules, key)
	}

	return nil
}
