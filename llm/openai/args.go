package openai

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// applyAPIArgs applies the caller's API arguments onto the SDK request.
// An argument the endpoint does not understand is rejected before the network
// call, as an argument error.
func applyAPIArgs(req *openai.ChatCompletionRequest, apiArgs llm.Args) error {
	for name, value := range apiArgs {
		var err error
		switch name {
		case "temperature":
			err = setFloat32(&req.Temperature, value)
		case "top_p":
			err = setFloat32(&req.TopP, value)
		case "presence_penalty":
			err = setFloat32(&req.PresencePenalty, value)
		case "frequency_penalty":
			err = setFloat32(&req.FrequencyPenalty, value)
		case "max_tokens":
			err = setInt(&req.MaxTokens, value)
		case "seed":
			var seed int
			if err = setInt(&seed, value); err == nil {
				req.Seed = &seed
			}
		case "user":
			s, ok := value.(string)
			if !ok {
				err = fmt.Errorf("expected string, got %T", value)
				break
			}
			req.User = s
		case "stop":
			req.Stop, err = stringSlice(value)
		case "response_format":
			req.ResponseFormat, err = toResponseFormat(value)
		default:
			return llm.NewArgumentError(fmt.Sprintf("unsupported API argument %q", name), nil)
		}
		if err != nil {
			return llm.NewArgumentError(fmt.Sprintf("invalid API argument %q", name), err)
		}
	}
	return nil
}

func setFloat32(dst *float32, value any) error {
	switch v := value.(type) {
	case float32:
		*dst = v
	case float64:
		*dst = float32(v)
	case int:
		*dst = float32(v)
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	return nil
}

func setInt(dst *int, value any) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		*dst = int(v)
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
	return nil
}

func stringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string elements, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or string list, got %T", value)
	}
}

// toResponseFormat converts the provider-neutral response_format argument
// (either the string "json_object" or a json_schema mapping) to the SDK type.
func toResponseFormat(value any) (*openai.ChatCompletionResponseFormat, error) {
	switch v := value.(type) {
	case string:
		if v != "json_object" && v != "text" {
			return nil, fmt.Errorf("unknown response format %q", v)
		}
		return &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatType(v),
		}, nil
	case map[string]any:
		if v["type"] != "json_schema" {
			return nil, fmt.Errorf("unknown response format type %v", v["type"])
		}
		spec, ok := v["json_schema"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json_schema section missing")
		}
		name, _ := spec["name"].(string)
		strict, _ := spec["strict"].(bool)
		raw, err := json.Marshal(spec["schema"])
		if err != nil {
			return nil, err
		}
		return &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: json.RawMessage(raw),
				Strict: strict,
			},
		}, nil
	default:
		return nil, fmt.Errorf("expected string or mapping, got %T", value)
	}
}
