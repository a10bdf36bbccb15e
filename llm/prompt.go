package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// CompilePrompt renders prompt arguments into the text of a single user
// message. Each argument becomes a named section; keys are emitted in sorted
// order so the same arguments always compile to the same prompt.
//
// Values form a closed set: strings (verbatim), booleans and numbers
// (formatted), and sequences, mappings, or struct records (indented JSON).
// Anything that cannot be serialized is an argument error, raised before any
// network call.
func CompilePrompt(prompt Args) (string, error) {
	keys := lo.Keys(prompt)
	sort.Strings(keys)

	var sections []string
	for _, key := range keys {
		rendered, err := renderPromptValue(prompt[key])
		if err != nil {
			return "", NewArgumentError(fmt.Sprintf("prompt argument %s is not serializable", key), err)
		}
		sections = append(sections, "# "+key+"\n"+rendered)
	}

	out := ""
	for i, section := range sections {
		if i > 0 {
			out += "\n\n"
		}
		out += section
	}
	return out, nil
}

// renderPromptValue formats a single prompt argument value.
func renderPromptValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case json.RawMessage:
		return string(v), nil
	default:
		// Sequences, mappings, and struct records render as JSON.
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}
