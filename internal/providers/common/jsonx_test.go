// internal/providers/common/jsonx_test.go
package common_test

import (
	"errors"
	"testing"

	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"answer": "hello"}`,
			want: `{"answer": "hello"}`,
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"answer\": \"hello\"}\n```",
			want: `{"answer": "hello"}`,
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"answer\": \"hello\"}\n```",
			want: `{"answer": "hello"}`,
		},
		{
			name: "leading prose",
			raw:  "Here is the result you asked for:\n{\"answer\": \"hello\"}\nLet me know if you need more.",
			want: `{"answer": "hello"}`,
		},
		{
			name: "braces inside string literals",
			raw:  `prose {"answer": "set {a} to \"b\"", "brands_mentioned": []} trailing`,
			want: `{"answer": "set {a} to \"b\"", "brands_mentioned": []}`,
		},
		{
			name: "nested objects",
			raw:  `{"outer": {"inner": 1}}`,
			want: `{"outer": {"inner": 1}}`,
		},
		{
			name:    "empty input",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "no object at all",
			raw:     "I could not produce a structured answer.",
			wantErr: true,
		},
		{
			name:    "unterminated object",
			raw:     `{"answer": "hello"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.ExtractJSONPayload(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSONPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ExtractJSONPayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONPayload(t *testing.T) {
	var out struct {
		Answer string `json:"answer"`
	}
	raw := "```json\n{\"answer\": \"hi\"}\n```"
	if err := common.DecodeJSONPayload(raw, "answer_fetch", &out); err != nil {
		t.Fatalf("DecodeJSONPayload() error = %v", err)
	}
	if out.Answer != "hi" {
		t.Errorf("DecodeJSONPayload() answer = %q, want %q", out.Answer, "hi")
	}
}

func TestDecodeJSONPayloadParseError(t *testing.T) {
	var out struct{}
	err := common.DecodeJSONPayload("not json at all", "rank_validation", &out)
	var pErr *common.ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("DecodeJSONPayload() error = %T, want *common.ParseError", err)
	}
	if pErr.Stage != "rank_validation" {
		t.Errorf("ParseError stage = %q, want %q", pErr.Stage, "rank_validation")
	}
}
