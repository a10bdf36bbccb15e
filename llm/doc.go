// Package llm provides a uniform calling convention for composed LLM behaviors.
//
// The central idea is that a specialized behavior ("answer questions about the
// last exception", "summarize with project context") should be callable through
// the exact same surface as a raw model call, so that code written against
// "something LLM-shaped" keeps working no matter how many layers of behavior
// have been stacked on top of the model.
//
// # Core Concepts
//
//  1. Wrapper: the four-operation query interface. QueryResponse returns the
//     complete text, QueryStream yields it chunk by chunk, QueryObject decodes
//     it into a caller-supplied type, and QueryBlock extracts a tagged fenced
//     block from it. A Wrapper may answer directly or delegate to an inner
//     Wrapper; composition chains of any depth present the same surface.
//
//  2. Argument routing: every operation takes a flat Args map. Names that are
//     entirely upper-case are prompt arguments and parameterize the prompt
//     text; everything else is an API argument passed through to the backend
//     (temperature, max_tokens, ...). SplitArgs performs the partition.
//
//  3. ChatModel: satisfies Wrapper given only a Backend, the single low-level
//     "send chat history, get a stream of text chunks" primitive. The four
//     operations are derived from it, so provider adapters only implement
//     Backend. Provider adapters live in the openai, anthropic, and ollama
//     subpackages and are the only components that perform I/O.
//
//  4. Decorator: wraps an inner Wrapper and lets a Hook rewrite the split
//     argument sets before delegation and observe the response after it.
//
//  5. Engine: pools several Wrappers behind one Wrapper, selecting members by
//     rate-limit headroom and retrying with exponential backoff.
//
//  6. Errors: the Error type distinguishes argument errors (detected before
//     any network call), backend failures, validation failures (response text
//     did not decode into the requested type), and format failures (requested
//     block absent). Callers can branch on these with the Is* predicates.
//
// Usage Example
//
//	model, err := openai.New(apiKey, "gpt-4o", logger)
//	if err != nil { ... }
//
//	answer, err := model.QueryResponse(ctx, llm.Args{
//	    "QUESTION":    "What is the capital of France?",
//	    "temperature": 0.2,
//	})
//
// Streams must be closed; abandoning a stream early releases the underlying
// connection:
//
//	stream, err := model.QueryStream(ctx, args)
//	if err != nil { ... }
//	defer stream.Close()
//	for stream.Next() {
//	    fmt.Print(stream.Chunk())
//	}
//	if err := stream.Err(); err != nil { ... }
package llm
