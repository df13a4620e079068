package extensions

import (
	"fmt"
	"testing"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

func TestRuntime_Sandbox(t *testing.T) {
	restricted := []string{
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

	for _, global := range restricted {
		t.Run(fmt.Sprintf("%s should be nil", global), func(t *testing.T) {
			ext, _ := setupTestExtension(t, "")

			luaCode := fmt.Sprintf(`
				if %s == nil then return "nil" end
				return "exists"
			`, global)

			err := ext.ExecuteLua(luaCode)
			if err != nil {
				t.Fatalf("executing lua code %s : %v", luaCode, err)
			}

			val := goValue(ext.LuaState, -1)
			if val != "nil" {
				t.Errorf("\nwanted:\nnil\ngot:\n%v", val)
			}
		})
	}
}

func TestRuntime_LuaStandardLibraries(t *testing.T) {
	tests := []struct {
		name    string
		luaCode string
		want    any
	}{
		{
			name:    "math library should be available",
			luaCode: `return math.abs(-10)`,
			want:    10.0,
		},
		{
			name:    "table library should be available",
			luaCode: `local t = {1, 2, 3}; return table.concat(t, "-")`,
			want:    "1-2-3",
		},
		{
			name:    "bit32 library should be available",
			luaCode: `return bit32.band(10, 2)`,
			want:    2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, _ := setupTestExtension(t, "")

			err := ext.ExecuteLua(tt.luaCode)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}

			got := goValue(ext.LuaState, -1)
			if got != tt.want {
				t.Errorf("\nwanted:\n%v\ngot:\n%v", tt.want, got)
			}
		})
	}
}

func TestRuntime_ExecuteLua(t *testing.T) {
	t.Run("should execute valid lua code", func(t *testing.T) {
		ext, _ := setupTestExtension(t, "")
		err := ext.ExecuteLua(`print("hello")`)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should return error on invalid lua code", func(t *testing.T) {
		ext, _ := setupTestExtension(t, "")
		err := ext.ExecuteLua(`invalid syntax`)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestRuntime_CheckGlobalFunction(t *testing.T) {
	t.Run("should find defined hook functions", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `function processQuestion(exchange) end`)

		if !ext.CheckGlobalFunction("processQuestion") {
			t.Fatalf("wanted processQuestion to exist")
		}
		if ext.CheckGlobalFunction("processAnswer") {
			t.Fatalf("wanted processAnswer to not exist")
		}
	})
}

func TestRuntime_QuestionHook(t *testing.T) {
	t.Run("should rewrite the question", func(t *testing.T) {
		luaCode := `
			function processQuestion(exchange)
				exchange:set_question(glyco.strings:trim(exchange:question()))
			end
		`
		ext, _ := setupTestExtension(t, luaCode)

		exchange := &Exchange{Question: "  what is carb counting?  "}
		err := ext.CallQuestionHook(exchange)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		want := "what is carb counting?"
		if exchange.Question != want {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", want, exchange.Question)
		}
	})

	t.Run("should drop the exchange", func(t *testing.T) {
		luaCode := `
			function processQuestion(exchange)
				if glyco.strings:contains(glyco.strings:lower(exchange:question()), "dose") then
					exchange:drop()
				end
			end
		`
		ext, _ := setupTestExtension(t, luaCode)

		exchange := &Exchange{Question: "what DOSE should I take?"}
		err := ext.CallQuestionHook(exchange)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if !exchange.Dropped {
			t.Fatalf("wanted exchange to be dropped")
		}
	})

	t.Run("should be a no-op without a hook", func(t *testing.T) {
		ext, _ := setupTestExtension(t, "")

		exchange := &Exchange{Question: "unchanged"}
		err := ext.CallQuestionHook(exchange)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if exchange.Question != "unchanged" {
			t.Fatalf("\nwanted:\nunchanged\ngot:\n%q", exchange.Question)
		}
	})
}

func TestRuntime_AnswerHook(t *testing.T) {
	t.Run("should append to the answer", func(t *testing.T) {
		luaCode := `
			function processAnswer(exchange)
				exchange:set_answer(exchange:answer() .. " [reviewed]")
			end
		`
		ext, _ := setupTestExtension(t, luaCode)

		exchange := &Exchange{Answer: "carb counting matches insulin to food"}
		err := ext.CallAnswerHook(exchange)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		want := "carb counting matches insulin to food [reviewed]"
		if exchange.Answer != want {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", want, exchange.Answer)
		}
	})

	t.Run("should record metadata under the extension name", func(t *testing.T) {
		luaCode := `
			function processAnswer(exchange)
				exchange:set_metadata({ checked = true })
			end
		`
		ext, _ := setupTestExtension(t, luaCode)

		exchange := &Exchange{Answer: "some answer", Metadata: make(map[string]any)}
		err := ext.CallAnswerHook(exchange)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		nested, ok := exchange.Metadata["test-extension"].(map[string]any)
		if !ok {
			t.Fatalf("\nwanted:\nmetadata under test-extension\ngot:\n%v", exchange.Metadata)
		}
		if checked, ok := nested["checked"].(bool); !ok || !checked {
			t.Fatalf("\nwanted:\nchecked=true\ngot:\n%v", nested)
		}
	})

	t.Run("should surface lua runtime errors", func(t *testing.T) {
		luaCode := `
			function processAnswer(exchange)
				error("boom")
			end
		`
		ext, _ := setupTestExtension(t, luaCode)

		err := ext.CallAnswerHook(&Exchange{})
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestRuntime_Log(t *testing.T) {
	t.Run("should attribute log entries to the extension", func(t *testing.T) {
		var gotLevel, gotMessage string
		var gotExtensionID *uuid.UUID

		ext, service := setupTestExtension(t, "")
		service.WriteLogFunc = func(level string, message string, options ...func(log *domain.Log) error) error {
			gotLevel = level
			gotMessage = message
			entry := &domain.Log{}
			for _, option := range options {
				option(entry)
			}
			gotExtensionID = entry.ExtensionID
			return nil
		}

		err := ext.ExecuteLua(`glyco:log("hello from lua", "WARN")`)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if gotLevel != "WARN" || gotMessage != "hello from lua" {
			t.Fatalf("\nwanted:\nWARN hello from lua\ngot:\n%s %s", gotLevel, gotMessage)
		}
		if gotExtensionID == nil || *gotExtensionID != ext.Data.ID {
			t.Fatalf("\nwanted:\nextension id %v\ngot:\n%v", ext.Data.ID, gotExtensionID)
		}
	})
}
