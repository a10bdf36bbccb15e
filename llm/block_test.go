package llm

import (
	"context"
	"testing"
)

func TestExtractBlock(t *testing.T) {
	text := "Here is the code:\n```python\nprint(1)\n```\nDone."
	got, err := ExtractBlock(text, "python")
	if err != nil {
		t.Fatalf("ExtractBlock: %v", err)
	}
	if got != "print(1)\n" {
		t.Errorf("ExtractBlock = %q, want %q", got, "print(1)\n")
	}
}

func TestExtractBlockFirstOfSeveral(t *testing.T) {
	text := "```python\nfirst\n```\n\n```python\nsecond\n```"
	got, err := ExtractBlock(text, "python")
	if err != nil {
		t.Fatalf("ExtractBlock: %v", err)
	}
	if got != "first\n" {
		t.Errorf("ExtractBlock = %q, want the first block", got)
	}
}

func TestExtractBlockSkipsOtherTags(t *testing.T) {
	text := "```sql\nSELECT 1;\n```\n\n```python\nprint(1)\n```"
	got, err := ExtractBlock(text, "python")
	if err != nil {
		t.Fatalf("ExtractBlock: %v", err)
	}
	if got != "print(1)\n" {
		t.Errorf("ExtractBlock = %q", got)
	}
}

func TestExtractBlockCaseSensitive(t *testing.T) {
	text := "```Python\nprint(1)\n```"
	_, err := ExtractBlock(text, "python")
	if err == nil {
		t.Fatal("tag matching must be case-sensitive")
	}
	if !IsFormatError(err) {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestExtractBlockMissing(t *testing.T) {
	_, err := ExtractBlock("No code here.", "python")
	if !IsFormatError(err) {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestExtractBlockMultiline(t *testing.T) {
	text := "```go\npackage main\n\nfunc main() {}\n```"
	got, err := ExtractBlock(text, "go")
	if err != nil {
		t.Fatalf("ExtractBlock: %v", err)
	}
	if got != "package main\n\nfunc main() {}\n" {
		t.Errorf("ExtractBlock = %q", got)
	}
}

func TestChatModelQueryBlock(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"Sure:\n```python\nprint(1)\n```"}}
	model := NewChatModel(backend)

	got, err := model.QueryBlock(context.Background(), "python", Args{"QUESTION": "Print one."})
	if err != nil {
		t.Fatalf("QueryBlock: %v", err)
	}
	if got != "print(1)\n" {
		t.Errorf("QueryBlock = %q", got)
	}

	// The block instruction is appended to the history.
	last := backend.history[len(backend.history)-1]
	if last.Role != RoleUser {
		t.Errorf("expected trailing user instruction, got %+v", last)
	}
}

func TestChatModelQueryBlockMissingBlock(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"I cannot do that."}}
	model := NewChatModel(backend)

	_, err := model.QueryBlock(context.Background(), "python", Args{"QUESTION": "Print one."})
	if !IsFormatError(err) {
		t.Errorf("expected format error, got %v", err)
	}
}
