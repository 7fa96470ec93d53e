package mcp

import "encoding/json"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  any            `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ResourceReadParams struct {
	URI string `json:"uri"`
}

// Resource URIs.
const (
	ResourcePrompts      = "billdecoder://prompts"
	ResourceLatestReport = "billdecoder://reports/latest"
	promptResourcePrefix = "billdecoder://prompts/"
)

func ListTools() map[string]any {
	return map[string]any{
		"tools": []map[string]any{
			{
				"name":        "score_answer",
				"description": "Score an answer about a medical document for accuracy, clarity and confidence",
				"inputSchema": objectSchema(map[string]string{"text": "string", "document_type": "string"}, "text"),
			},
			{
				"name":        "check_policy",
				"description": "Redact identifiers and check an answer against the answer policy",
				"inputSchema": objectSchema(map[string]string{"text": "string"}, "text"),
			},
			{
				"name":        "list_prompts",
				"description": "List prompt names, optionally for one document type",
				"inputSchema": objectSchema(map[string]string{"document_type": "string"}),
			},
			{
				"name":        "compose_prompt",
				"description": "Build the message sent to the model for a prompt and a test document",
				"inputSchema": objectSchema(map[string]string{"prompt": "string", "document": "object"}, "prompt", "document"),
			},
		},
	}
}

func ListResources() map[string]any {
	return map[string]any{
		"resources": []map[string]any{
			{"uri": ResourcePrompts, "description": "Prompt catalog and document-type matrix"},
			{"uri": promptResourcePrefix + "{name}", "description": "One prompt text"},
			{"uri": ResourceLatestReport, "description": "Newest evaluation report"},
		},
	}
}

func objectSchema(props map[string]string, required ...string) map[string]any {
	properties := make(map[string]any, len(props))
	for name, typ := range props {
		properties[name] = map[string]any{"type": typ}
	}
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
