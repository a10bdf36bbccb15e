package llm

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// blockQueryMessage builds the instruction turn appended to the history for a
// block query, asking the model to answer inside a tagged fenced block.
func blockQueryMessage(blockType string) Message {
	return UserMessage(fmt.Sprintf(
		"Respond with a fenced code block tagged %q, like:\n```%s\n<your answer>\n```",
		blockType, blockType))
}

// ExtractBlock returns the content of the first fenced code block in text
// whose info string matches blockType exactly (case-sensitive). The content
// keeps its trailing newline; the fence lines themselves are not part of it.
// A missing block is a format error.
func ExtractBlock(input string, blockType string) (string, error) {
	source := []byte(input)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var content string
	found := false
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if string(fence.Language(source)) != blockType {
			return ast.WalkContinue, nil
		}
		content = fenceContent(fence, source)
		found = true
		return ast.WalkStop, nil
	})

	if !found {
		return "", NewFormatError(fmt.Sprintf("no block tagged %q in response", blockType))
	}
	return content, nil
}

// fenceContent concatenates the source lines of a fenced code block.
func fenceContent(fence *ast.FencedCodeBlock, source []byte) string {
	var sb strings.Builder
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}
