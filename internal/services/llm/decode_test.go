package llm

import (
	"strings"
	"testing"
)

func TestDecodeLLMJSON(t *testing.T) {
	type target struct {
		Status string `json:"status"`
	}

	cases := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain object", content: `{"status": "APPROVED"}`, want: "APPROVED"},
		{name: "surrounding whitespace", content: "\n\t {\"status\": \"APPROVED\"} \n", want: "APPROVED"},
		{name: "code fence", content: "```json\n{\"status\": \"APPROVED\"}\n```", want: "APPROVED"},
		{name: "fence without language", content: "```\n{\"status\": \"APPROVED\"}\n```", want: "APPROVED"},
		{name: "leading prose", content: "Here is the result you asked for:\n{\"status\": \"APPROVED\"}", want: "APPROVED"},
		{name: "trailing prose", content: "{\"status\": \"APPROVED\"}\nLet me know if you need changes.", want: "APPROVED"},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: "  \n ", wantErr: true},
		{name: "prose only", content: "I am unable to generate that.", wantErr: true},
		{name: "truncated object", content: `{"status": "APPRO`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out target
			err := DecodeLLMJSON(tc.content, &out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeLLMJSON: %v", err)
			}
			if out.Status != tc.want {
				t.Fatalf("status = %q, want %q", out.Status, tc.want)
			}
		})
	}
}

func TestDecodeLLMJSONArray(t *testing.T) {
	var out []int
	if err := DecodeLLMJSON("```json\n[1, 2, 3]\n```", &out); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("out = %v", out)
	}
}

func TestDecodeLLMJSONErrorIncludesSnippet(t *testing.T) {
	var out map[string]any
	err := DecodeLLMJSON("the model rambles about something unrelated entirely", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("error %v carries no snippet", err)
	}
}
