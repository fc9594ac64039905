package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

type testConfig struct{ root string }

func (c testConfig) Language() string    { return "en" }
func (c testConfig) ProjectRoot() string { return c.root }

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Messages[0].Content)
	}
	return tc.Text
}

func getReq(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func TestResumePrompt_Definition(t *testing.T) {
	def := NewResumePrompt(nil).Definition()
	if def.Name != "session-resume" {
		t.Errorf("name = %s", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "mode" {
		t.Errorf("arguments = %+v", def.Arguments)
	}
}

func TestResumePrompt_NoActiveSession(t *testing.T) {
	p := NewResumePrompt(session.NewStore(testConfig{root: t.TempDir()}))

	res, err := p.Handle(context.Background(), getReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(promptText(t, res), "session_create") {
		t.Errorf("text = %q", promptText(t, res))
	}
}

func TestResumePrompt_DefaultsToNextMode(t *testing.T) {
	store := session.NewStore(testConfig{root: t.TempDir()})
	ctx := context.Background()
	id := store.Create(ctx, "Resume Me").SessionID
	store.Update(ctx, id, session.Section{Mode: session.ModePlan, Decisions: []string{"Use REST"}})

	res, err := NewResumePrompt(store).Handle(ctx, getReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "in ACT mode") || !strings.Contains(text, "- Use REST") {
		t.Errorf("text = %q", text)
	}
	if res.Description != "Resume Resume Me" {
		t.Errorf("Description = %q", res.Description)
	}
}

func TestResumePrompt_ExplicitMode(t *testing.T) {
	store := session.NewStore(testConfig{root: t.TempDir()})
	ctx := context.Background()
	store.Create(ctx, "Explicit")

	res, err := NewResumePrompt(store).Handle(ctx, getReq(map[string]string{"mode": "eval"}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(promptText(t, res), "in EVAL mode") {
		t.Errorf("text = %q", promptText(t, res))
	}

	if _, err := NewResumePrompt(store).Handle(ctx, getReq(map[string]string{"mode": "nap"})); err == nil {
		t.Error("invalid mode should fail")
	}
}

func TestNextMode(t *testing.T) {
	tests := []struct {
		last []session.Mode
		want session.Mode
	}{
		{nil, session.ModePlan},
		{[]session.Mode{session.ModePlan}, session.ModeAct},
		{[]session.Mode{session.ModePlan, session.ModeAct}, session.ModeEval},
		{[]session.Mode{session.ModeEval}, session.ModeEval},
		{[]session.Mode{session.ModeAuto}, session.ModeAuto},
	}
	for _, tt := range tests {
		doc := &session.Document{}
		for _, m := range tt.last {
			doc.Sections = append(doc.Sections, session.Section{Mode: m})
		}
		if got := nextMode(doc); got != tt.want {
			t.Errorf("nextMode(%v) = %s, want %s", tt.last, got, tt.want)
		}
	}
}
