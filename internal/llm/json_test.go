package llm

import "testing"

func TestStripCodeFences(t *testing.T) {
	for in, want := range map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`  {"a":1}  `:             `{"a":1}`,
	} {
		if got := StripCodeFences(in); got != want {
			t.Fatalf("StripCodeFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	if err := DecodeJSON("Here you go:\n{\"a\": 7}\nThanks", &out); err != nil || out.A != 7 {
		t.Fatalf("expected embedded object to decode, got %v %+v", err, out)
	}
	if err := DecodeJSON("```json\n{\"a\": 3}\n```", &out); err != nil || out.A != 3 {
		t.Fatalf("expected fenced object to decode, got %v %+v", err, out)
	}
	for _, bad := range []string{"", "no json here", "{\"a\": }"} {
		if err := DecodeJSON(bad, &out); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
