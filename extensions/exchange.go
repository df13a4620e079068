package extensions

import (
	"fmt"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
)

// Exchange is one question/answer pair moving through the ask pipeline.
// Question hooks see it before the provider call with Answer empty; answer
// hooks see it after the provider call with both sides populated. Metadata
// written by an extension is persisted on the stored messages.
type Exchange struct {
	ConversationID uuid.UUID
	QuestionID     uuid.UUID
	Question       string
	Answer         string
	Metadata       map[string]any
	Dropped        bool
	SkipPipeline   bool
}

// RegisterExchangeType registers the `exchange` type and its methods with the
// Lua state. Scripts receive an exchange in their processQuestion and
// processAnswer hooks.
func RegisterExchangeType(runtime *Runtime) {
	funcs := make(map[string]lua.Function)

	// id returns the UUID of the question message.
	//
	// @return string The question message UUID.
	funcs["id"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		l.PushString(exchange.QuestionID.String())
		return 1
	}

	// conversation_id returns the UUID of the conversation.
	//
	// @return string The conversation UUID.
	funcs["conversation_id"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		l.PushString(exchange.ConversationID.String())
		return 1
	}

	// question returns the question text.
	//
	// @return string The question.
	funcs["question"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		l.PushString(exchange.Question)
		return 1
	}

	// set_question replaces the question text before it reaches the provider.
	//
	// @param question string The new question.
	funcs["set_question"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		exchange.Question = lua.CheckString(l, 2)
		return 0
	}

	// answer returns the answer text. Empty inside question hooks.
	//
	// @return string The answer.
	funcs["answer"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		l.PushString(exchange.Answer)
		return 1
	}

	// set_answer replaces the answer text before it is stored and returned.
	//
	// @param answer string The new answer.
	funcs["set_answer"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		exchange.Answer = lua.CheckString(l, 2)
		return 0
	}

	// metadata returns the exchange's metadata.
	//
	// @return table The metadata table.
	funcs["metadata"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		util.DeepPush(l, exchange.Metadata)
		return 1
	}

	// set_metadata merges the given table into the exchange's metadata under
	// the current extension's name.
	//
	// @param metadata table The metadata table to set.
	funcs["set_metadata"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)

		val := parseTable(l, 2, goValue)

		extensionMetadata := asMap(val)
		if extensionMetadata == nil {
			lua.ArgumentError(l, 2, "metadata must be a key-value table, not an array")
			return 0
		}

		if exchange.Metadata == nil {
			exchange.Metadata = make(map[string]any)
		}
		exchange.Metadata[runtime.Data.Name] = extensionMetadata
		return 0
	}

	// drop marks the exchange to be dropped. The question is never sent to
	// the provider and the caller receives the standard refusal answer.
	funcs["drop"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		exchange.Dropped = true
		return 0
	}

	// skip marks the exchange to be skipped by the remaining extensions.
	funcs["skip"] = func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		exchange.SkipPipeline = true
		return 0
	}

	RegisterType(runtime.LuaState, "exchange", funcs, func(l *lua.State) int {
		exchange := lua.CheckUserData(l, 1, "exchange").(*Exchange)
		l.PushString(fmt.Sprintf(
			"Exchange { Conversation: %s, Question: %q, Answer: %d bytes }",
			exchange.ConversationID,
			exchange.Question,
			len(exchange.Answer),
		))
		return 1
	})
}
