package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
)

// schemaFor generates the JSON schema for the value target points to.
// Backends and models expect an object at the top level, so non-object root
// schemas (arrays, primitives) are wrapped in a single-field object. It
// returns the schema sent to the model, the schema of the target itself
// (used to validate the response before decoding), and whether decoding
// should look inside a "data" field.
func schemaFor(target any) (schema, targetSchema json.RawMessage, wrapped bool, err error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, nil, false, NewArgumentError(fmt.Sprintf("target must be a non-nil pointer, got %T", target), nil)
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	root := reflector.ReflectFromType(v.Type().Elem())
	// Drafts and IDs are noise in a prompt.
	root.Version = ""
	root.ID = ""

	raw, merr := json.Marshal(root)
	if merr != nil {
		return nil, nil, false, NewArgumentError("target type is not schema-describable", merr)
	}

	if root.Type == "object" {
		return raw, raw, false, nil
	}

	wrapper := map[string]any{
		"type":       "object",
		"title":      "Wrapper",
		"properties": map[string]any{"data": json.RawMessage(raw)},
		"required":   []string{"data"},
	}
	wrapperRaw, merr := json.Marshal(wrapper)
	if merr != nil {
		return nil, nil, false, NewArgumentError("target type is not schema-describable", merr)
	}
	return wrapperRaw, raw, true, nil
}

// objectQueryMessages builds the instruction turns appended to the history for
// an object query: the schema itself plus a nudge to return an instance of it.
func objectQueryMessages(schema json.RawMessage) []Message {
	system := "Your task is to understand the content and provide " +
		"the parsed objects in json that matches the following json_schema:\n\n" +
		string(schema) + "\n\n" +
		"Make sure to return an instance of the JSON, not the schema itself."
	user := "Return the correct JSON response, not the JSON_SCHEMA. " +
		"Use only fields specified by the JSON_SCHEMA and nothing else."
	return []Message{SystemMessage(system), UserMessage(user)}
}

// responseFormatFor builds the structured-output API argument understood by
// backends that support constrained decoding. Backends that do not simply
// ignore it; the instruction messages carry the schema either way.
func responseFormatFor(schema json.RawMessage) map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "response",
			"schema": schema,
			"strict": true,
		},
	}
}

// decodeObject parses response text into target. Models often wrap JSON in a
// code fence or in the requested {"data": ...} envelope; both are tolerated.
// Each candidate payload is validated against targetSchema before decoding,
// so a null document or one missing required fields is a validation error,
// never a silently zero-valued result.
func decodeObject(text string, target any, targetSchema json.RawMessage, wrapped bool) error {
	raw := stripFence(text)

	schema, err := compileSchema(targetSchema)
	if err != nil {
		return NewArgumentError("target schema does not compile", err)
	}

	direct := func() (string, error) { return raw, nil }
	unwrap := func() (string, error) {
		field := gjson.Get(raw, "data")
		if !field.Exists() {
			return "", fmt.Errorf("no data field present")
		}
		return field.Raw, nil
	}

	attempts := []func() (string, error){direct, unwrap}
	if wrapped {
		attempts = []func() (string, error){unwrap, direct}
	}

	var firstErr error
	for _, attempt := range attempts {
		payload, err := attempt()
		if err == nil {
			err = validateAndDecode(schema, payload, target)
		}
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return NewValidationError("response does not match the requested type", firstErr)
}

// compileSchema compiles a generated schema for response validation.
func compileSchema(raw json.RawMessage) (*validator.Schema, error) {
	doc, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := validator.NewCompiler()
	if err := compiler.AddResource("response.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("response.json")
}

// validateAndDecode checks the payload against the schema and, only if it
// conforms, unmarshals it into target.
func validateAndDecode(schema *validator.Schema, payload string, target any) error {
	doc, err := validator.UnmarshalJSON(strings.NewReader(payload))
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), target)
}

// stripFence removes a code fence around a JSON payload, if present.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return t
	}
	t = t[nl+1:]
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
	return t
}
