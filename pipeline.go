package glyco

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glyco-app/glyco/domain"
	"github.com/glyco-app/glyco/extensions"
)

var (
	// ErrDropped is returned when the question should be dropped completely.
	// The question will not be sent to the provider and the caller receives
	// the standard refusal answer.
	ErrDropped = errors.New("question dropped by safety rules or extension")

	// ErrSkipPipeline is returned to stop the modifier pipeline for an exchange.
	// The exchange will still continue but won't be processed by any future modifiers
	ErrSkipPipeline = errors.New("stop processing exchange")

	// ErrConsentRequired is returned when the conversation has no profile or
	// the profile's consent box is unticked
	ErrConsentRequired = errors.New("education-only consent is required before asking")

	// ErrConversationNotFound is returned when the conversation does not exist
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrProviderUndefined is returned when no provider is configured
	ErrProviderUndefined = errors.New("no provider defined")
)

// RefusalAnswer is stored and returned in place of a provider answer when a
// question is dropped by the safety rules or an extension.
const RefusalAnswer = "I can't help with medication dosing or insulin adjustments. " +
	"Those decisions must come from your care team, who know your full history. " +
	"I can explain how a medication works, what to watch for, and when to contact " +
	"your doctor. If you are currently experiencing very high or very low glucose, " +
	"please contact your care team or local emergency services."

// QuestionModifierFunc is a signature for question modifiers, it takes in the exchange and *App
type QuestionModifierFunc func(app *App, exchange *extensions.Exchange) error

// AnswerModifierFunc is a signature for answer modifiers, it takes in the exchange and *App
type AnswerModifierFunc func(app *App, exchange *extensions.Exchange) error

// ConsentQuestionModifier blocks the exchange unless the conversation has a
// profile with the education-only consent box ticked. Unlike a drop, a
// consent failure is returned to the caller so the UI can surface the form.
func ConsentQuestionModifier(app *App, exchange *extensions.Exchange) error {
	profile, err := app.Repo.GetProfile(exchange.ConversationID)
	if err != nil {
		return ErrConsentRequired
	}
	if !profile.Consent {
		return ErrConsentRequired
	}
	return nil
}

// SafetyQuestionModifier runs the question text through the safety scope.
// Questions matching a dosing-request rule are dropped and flagged in the
// exchange metadata so they can be counted later.
func SafetyQuestionModifier(app *App, exchange *extensions.Exchange) error {
	if app.Scope.MatchesString(exchange.Question, "question") {
		return nil
	}
	if exchange.Metadata == nil {
		exchange.Metadata = make(map[string]any)
	}
	exchange.Metadata["flagged"] = true
	exchange.Dropped = true
	return ErrDropped
}

// ExtensionsQuestionModifier will run the `processQuestion` function (if it is defined)
// for all the loaded extensions. After each hook, it will check if the exchange is
// passed through (nil), skipped (`ErrSkipPipeline`), or dropped (`ErrDropped`).
func ExtensionsQuestionModifier(app *App, exchange *extensions.Exchange) error {
	for _, ext := range app.Extensions {
		err := ext.CallQuestionHook(exchange)
		if err != nil {
			app.WriteLog("ERROR", fmt.Sprintf("Running processQuestion : %s", err.Error()), domain.LogWithExtensionID(ext.Data.ID))
			// Continue as a err in Lua should not bring down the app
		}

		if exchange.SkipPipeline {
			return ErrSkipPipeline
		}

		if exchange.Dropped {
			return ErrDropped
		}
	}
	return nil
}

// ExtensionsAnswerModifier will run the `processAnswer` function (if it is defined)
// for all the loaded extensions. After each hook, it will check if the exchange is
// passed through (nil), skipped (`ErrSkipPipeline`), or dropped (`ErrDropped`).
func ExtensionsAnswerModifier(app *App, exchange *extensions.Exchange) error {
	for _, ext := range app.Extensions {
		err := ext.CallAnswerHook(exchange)
		if err != nil {
			app.WriteLog("ERROR", fmt.Sprintf("Running processAnswer : %s", err.Error()), domain.LogWithExtensionID(ext.Data.ID))
			// Continue as a err in Lua should not bring down the app
		}

		if exchange.SkipPipeline {
			return ErrSkipPipeline
		}

		if exchange.Dropped {
			return ErrDropped
		}
	}
	return nil
}

// DisclaimerAnswerModifier appends the configured disclaimer to the answer.
// The disclaimer is appended at most once per answer.
func DisclaimerAnswerModifier(app *App, exchange *extensions.Exchange) error {
	disclaimer, err := app.Repo.GetDisclaimer()
	if err != nil {
		return fmt.Errorf("getting disclaimer : %w", err)
	}
	if disclaimer == "" || strings.Contains(exchange.Answer, disclaimer) {
		return nil
	}
	exchange.Answer = fmt.Sprintf("%s\n\n---\n%s", exchange.Answer, disclaimer)
	return nil
}

// runQuestionModifiers executes the question pipeline in order. ErrSkipPipeline
// stops the pipeline without failing the exchange; any other error is returned.
func (app *App) runQuestionModifiers(exchange *extensions.Exchange) error {
	for _, modifier := range app.QuestionModifiers {
		if err := modifier(app, exchange); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				return nil
			}
			return err
		}
	}
	return nil
}

// runAnswerModifiers executes the answer pipeline in order. ErrSkipPipeline
// stops the pipeline without failing the exchange; any other error is returned.
func (app *App) runAnswerModifiers(exchange *extensions.Exchange) error {
	for _, modifier := range app.AnswerModifiers {
		if err := modifier(app, exchange); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				return nil
			}
			return err
		}
	}
	return nil
}
