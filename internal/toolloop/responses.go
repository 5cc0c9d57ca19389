// Package toolloop drives the multi-turn Responses API conversation: it
// posts the user prompt plus the tool schema document, parses each
// response for function calls, fans the calls out over a worker pool, and
// feeds the tool outputs back linked by the server's response id until the
// model yields final text or the turn budget runs out.
package toolloop

import (
	"encoding/json"
	"strings"
)

// contentPart is one element of a message's content array, on both the
// request side (input_text) and the response side (output_text).
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// message is the request-side user message wrapper.
type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// outputItem is one element of a response's output array. Arguments is
// kept raw: the API encodes function-call arguments as either a JSON
// object or a JSON-encoded string, and decodeArguments accepts both.
type outputItem struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Content   []contentPart   `json:"content,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// apiResponse is the subset of a Responses API body the loop consumes.
type apiResponse struct {
	ID     string       `json:"id"`
	Output []outputItem `json:"output"`
}

// functionCallOutput is the follow-up input item carrying one tool's
// result. Output holds the inner tool-result JSON as a plain Go string;
// encoding/json escapes it into the outer JSON string on marshal, so the
// inner document's quotes and backslashes arrive double-encoded.
type functionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// request is the Responses API request body. Input is either []message
// (initial turn) or []functionCallOutput (follow-up).
type request struct {
	Model              string          `json:"model"`
	Input              any             `json:"input,omitempty"`
	Instructions       string          `json:"instructions,omitempty"`
	PreviousResponseID string          `json:"previous_response_id,omitempty"`
	Tools              []ToolDef       `json:"tools,omitempty"`
	ToolChoice         string          `json:"tool_choice,omitempty"`
	Text               json.RawMessage `json:"text,omitempty"`
}

func parseResponse(body []byte) (*apiResponse, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractResponseID pulls the response id out of a raw response body, for
// callers persisting continuation state between invocations.
func ExtractResponseID(body []byte) (string, bool) {
	resp, err := parseResponse(body)
	if err != nil || resp.ID == "" {
		return "", false
	}
	return resp.ID, true
}

// firstOutputText scans the output array for the model's final text: the
// current shape is a "message" item whose content carries an output_text
// part, with a fallback for the older bare {type:"output_text",text:...}
// item.
func firstOutputText(resp *apiResponse) (string, bool) {
	for _, item := range resp.Output {
		for _, part := range item.Content {
			if part.Type == "output_text" {
				return part.Text, true
			}
		}
		if item.Type == "output_text" && item.Text != "" {
			return item.Text, true
		}
	}
	return "", false
}

// decodeArguments turns a function call's raw arguments into an owned
// map. The API encodes arguments as either a JSON object or a
// JSON-encoded string holding one; both shapes are accepted. Decoding
// allocates fresh strings, so worker goroutines never alias the response
// document.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, err
		}
		if strings.TrimSpace(inner) == "" {
			return map[string]any{}, nil
		}
		return decodeArguments(json.RawMessage(inner))
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
