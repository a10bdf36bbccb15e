package llm

import (
	"testing"
)

func TestIsPromptName(t *testing.T) {
	promptNames := []string{"QUESTION", "SOURCE_CODE", "X", "RULE_2", "_", "123"}
	for _, name := range promptNames {
		if !IsPromptName(name) {
			t.Errorf("expected %q to be a prompt name", name)
		}
	}

	apiNames := []string{"temperature", "max_tokens", "Question", "qUESTION", "topP"}
	for _, name := range apiNames {
		if IsPromptName(name) {
			t.Errorf("expected %q to be an API name", name)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	args := Args{
		"QUESTION":    "What is 2+2?",
		"CONTEXT":     "arithmetic",
		"temperature": 0.7,
		"max_tokens":  100,
	}

	call := SplitArgs(args)

	if len(call.Prompt) != 2 {
		t.Errorf("expected 2 prompt args, got %d", len(call.Prompt))
	}
	if call.Prompt["QUESTION"] != "What is 2+2?" {
		t.Error("QUESTION should be a prompt arg")
	}
	if len(call.API) != 2 {
		t.Errorf("expected 2 API args, got %d", len(call.API))
	}
	if call.API["temperature"] != 0.7 {
		t.Error("temperature should be an API arg")
	}

	// Classification depends only on the name, never the value.
	byValue := SplitArgs(Args{"UPPER": 0.7, "lower": "What is 2+2?"})
	if _, ok := byValue.Prompt["UPPER"]; !ok {
		t.Error("UPPER should be a prompt arg regardless of value type")
	}
	if _, ok := byValue.API["lower"]; !ok {
		t.Error("lower should be an API arg regardless of value type")
	}
}

func TestCallArgsMerge(t *testing.T) {
	original := Args{"QUESTION": "hi", "temperature": 0.5}
	merged := SplitArgs(original).Merge()

	if len(merged) != len(original) {
		t.Fatalf("expected %d merged args, got %d", len(original), len(merged))
	}
	for name, value := range original {
		if merged[name] != value {
			t.Errorf("merged[%q] = %v, want %v", name, merged[name], value)
		}
	}
}

func TestArgsClone(t *testing.T) {
	original := Args{"QUESTION": "hi"}
	copied := original.clone()
	copied["QUESTION"] = "rewritten"

	if original["QUESTION"] != "hi" {
		t.Error("mutating a clone must not affect the original")
	}
}
