package llm

import (
	"strings"
)

// Args is a flat mapping of argument name to value passed to every query
// operation. Argument names route the value: see IsPromptName.
type Args map[string]any

// CallArgs is the result of partitioning Args at the call boundary. The two
// sets are disjoint by construction; deeper layers never see the flat map.
type CallArgs struct {
	Prompt Args // prompt arguments, parameterize the prompt text
	API    Args // API arguments, passed through to the backend
}

// IsPromptName reports whether an argument name designates a prompt argument.
// A name is a prompt name when it is entirely upper-case; underscores and
// digits are neutral. The rule is purely syntactic and has no escape
// mechanism: an API parameter that happens to be upper-case would be routed
// to the prompt, so backends keep their parameter names lower-case.
func IsPromptName(name string) bool {
	return name == strings.ToUpper(name)
}

// SplitArgs partitions args into prompt and API arguments by name casing.
// The classification is a pure function of the name; values are never
// inspected.
func SplitArgs(args Args) CallArgs {
	call := CallArgs{
		Prompt: make(Args, len(args)),
		API:    make(Args, len(args)),
	}
	for name, value := range args {
		if IsPromptName(name) {
			call.Prompt[name] = value
		} else {
			call.API[name] = value
		}
	}
	return call
}

// Merge flattens the split sets back into a single Args map, for handing a
// possibly rewritten call to an inner Wrapper. Prompt and API names are
// disjoint, so order does not matter.
func (c CallArgs) Merge() Args {
	merged := make(Args, len(c.Prompt)+len(c.API))
	for name, value := range c.Prompt {
		merged[name] = value
	}
	for name, value := range c.API {
		merged[name] = value
	}
	return merged
}

// clone returns a shallow copy so hooks can rewrite argument sets without
// mutating the caller's map.
func (a Args) clone() Args {
	copied := make(Args, len(a))
	for name, value := range a {
		copied[name] = value
	}
	return copied
}
