package llm

import (
	"context"
	"encoding/json"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeMessager struct {
	params []anthropic.MessageNewParams
	reply  string
}

func (f *fakeMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, params)
	var msg anthropic.Message
	raw := `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":` + quote(f.reply) + `}]}`
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestAnthropicTransportJSONModeRestoresPrefill(t *testing.T) {
	fm := &fakeMessager{reply: `"ok": true}`}
	tr := NewAnthropicTransport(fm)
	out, err := tr.Complete(context.Background(), Request{Model: "m", Messages: testMessages, JSONMode: true})
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("unexpected output %q", out)
	}
	p := fm.params[0]
	if len(p.Messages) != 2 {
		t.Fatalf("expected user message plus assistant prefill, got %d", len(p.Messages))
	}
	if len(p.System) != 1 || p.System[0].Text != "sys" {
		t.Fatalf("expected system prompt, got %+v", p.System)
	}
	if p.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", p.MaxTokens)
	}
}

func TestAnthropicTransportMinimalFoldsSystemPrompt(t *testing.T) {
	fm := &fakeMessager{reply: `{"ok":true}`}
	tr := NewAnthropicTransport(fm)
	if _, err := tr.Complete(context.Background(), Request{Model: "m", Messages: testMessages, Minimal: true}); err != nil {
		t.Fatal(err)
	}
	p := fm.params[0]
	if len(p.System) != 0 || len(p.Messages) != 1 {
		t.Fatalf("minimal request should carry only messages, got system=%d messages=%d", len(p.System), len(p.Messages))
	}
}

func TestSplitSystem(t *testing.T) {
	sys, rest := splitSystem(testMessages)
	if sys != "sys" || len(rest) != 1 || rest[0].Role != RoleUser {
		t.Fatalf("unexpected split: %q %+v", sys, rest)
	}
	folded := prependToFirstUser(rest, "sys")
	if folded[0].Content != "sys\n\nhi" || rest[0].Content != "hi" {
		t.Fatalf("unexpected fold: %+v (original %+v)", folded, rest)
	}
}

func TestNewAnthropicTransportFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicTransportFromEnv(); err == nil {
		t.Fatal("expected missing key error")
	}
	called := ""
	prev := newAnthropicClient
	newAnthropicClient = func(apiKey string) AnthropicMessager {
		called = apiKey
		return &fakeMessager{}
	}
	defer func() { newAnthropicClient = prev }()
	t.Setenv("ANTHROPIC_API_KEY", " key ")
	if _, err := NewAnthropicTransportFromEnv(); err != nil || called != "key" {
		t.Fatalf("expected creator to receive trimmed key, got %q err=%v", called, err)
	}
}
