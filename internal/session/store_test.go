package session

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// testConfig is a mutable ConfigProvider.
type testConfig struct {
	mu   sync.Mutex
	lang string
	root string
}

func (c *testConfig) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

func (c *testConfig) ProjectRoot() string { return c.root }

func (c *testConfig) setLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lang = lang
}

// recorderSpy collects recorded events.
type recorderSpy struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorderSpy) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorderSpy) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

// slowFs delays Stat and Open past any short timeout.
type slowFs struct {
	afero.Fs
	delay time.Duration
}

func (f slowFs) Stat(name string) (os.FileInfo, error) {
	time.Sleep(f.delay)
	return f.Fs.Stat(name)
}

func (f slowFs) Open(name string) (afero.File, error) {
	time.Sleep(f.delay)
	return f.Fs.Open(name)
}

func pinTime(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func lockCount(s *Store) int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func newTestStore(t *testing.T, lang string, opts ...Option) (*Store, *testConfig) {
	t.Helper()
	pinTime(t, time.Date(2026, 1, 11, 14, 30, 0, 0, time.UTC))
	cfg := &testConfig{lang: lang, root: t.TempDir()}
	return NewStore(cfg, opts...), cfg
}

func TestStore_CreateUpdateGet_EndToEnd(t *testing.T) {
	s, cfg := newTestStore(t, "en")
	ctx := context.Background()

	res := s.Create(ctx, "Implement Auth")
	if !res.Success || !res.Created {
		t.Fatalf("Create = %+v", res)
	}
	if res.SessionID != "2026-01-11-implement-auth" {
		t.Errorf("SessionID = %s", res.SessionID)
	}
	if _, err := os.Stat(SessionFilePath(cfg.root, res.SessionID)); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	if r := s.Update(ctx, res.SessionID, Section{Mode: ModePlan, Decisions: []string{"Use REST"}}); !r.Success {
		t.Fatalf("first Update = %+v", r)
	}
	if r := s.Update(ctx, res.SessionID, Section{Mode: "plan", Decisions: []string{"JWT for auth"}}); !r.Success {
		t.Fatalf("second Update = %+v", r)
	}

	doc := s.Get(ctx, res.SessionID)
	if doc == nil {
		t.Fatal("Get returned nil")
	}
	if doc.Metadata.Title != "Implement Auth" || doc.Metadata.Status != StatusActive {
		t.Errorf("Metadata = %+v", doc.Metadata)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	plan := doc.Section(ModePlan)
	if !reflect.DeepEqual(plan.Decisions, []string{"Use REST", "JWT for auth"}) {
		t.Errorf("Decisions = %v", plan.Decisions)
	}
	if plan.Timestamp != "1/11/2026, 2:30:00 PM" {
		t.Errorf("Timestamp = %q", plan.Timestamp)
	}
}

func TestStore_CreateIsIdempotent(t *testing.T) {
	s, cfg := newTestStore(t, "en")
	ctx := context.Background()

	first := s.Create(ctx, "Implement Auth")
	path := SessionFilePath(cfg.root, first.SessionID)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}

	second := s.Create(ctx, "  Implement Auth  ")
	if !second.Success || second.Created {
		t.Errorf("second Create = %+v, want Success and !Created", second)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("second id = %s, want %s", second.SessionID, first.SessionID)
	}

	after, _ := os.ReadFile(path)
	if string(after) != string(before) {
		t.Error("second Create rewrote the file")
	}
}

func TestStore_CreateRejectsBadTitles(t *testing.T) {
	s, _ := newTestStore(t, "en")

	for _, title := range []string{"", "   ", strings.Repeat("x", MaxTitleLength+1)} {
		res := s.Create(context.Background(), title)
		if res.Success {
			t.Errorf("Create(%q) succeeded", title)
		}
		if res.Code != CodeValidation {
			t.Errorf("Create(%q).Code = %s, want %s", title, res.Code, CodeValidation)
		}
		if res.Error == "" || res.Err == nil {
			t.Errorf("Create(%q) missing error details: %+v", title, res)
		}
	}
}

func TestStore_CreateWithAllPunctuationTitle(t *testing.T) {
	s, _ := newTestStore(t, "en")
	res := s.Create(context.Background(), "???")
	if res.SessionID != "2026-01-11-untitled-session" {
		t.Errorf("SessionID = %s", res.SessionID)
	}
}

func TestStore_InvalidIDsReadAsNotFound(t *testing.T) {
	s, cfg := newTestStore(t, "en")
	ctx := context.Background()

	// A real file outside the sessions directory must stay unreachable.
	secret := cfg.root + "/docs/codingbuddy/secret.md"
	if err := os.MkdirAll(SessionsPath(cfg.root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(secret, []byte("# Session: secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"../secret", "..", "/etc/passwd", `a\b`, "a\x00b", "2026-01-11-missing"} {
		if doc := s.Get(ctx, id); doc != nil {
			t.Errorf("Get(%q) = %+v, want nil", id, doc)
		}
		res := s.Update(ctx, id, Section{Mode: ModeAct, Task: "x"})
		if res.Success || res.Code != CodeNotFound {
			t.Errorf("Update(%q) = %+v, want %s", id, res, CodeNotFound)
		}
	}
}

func TestStore_UpdateValidatesPatch(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Validate").SessionID

	tests := []struct {
		name  string
		patch Section
	}{
		{"bad mode", Section{Mode: "REVIEW"}},
		{"empty mode", Section{}},
		{"bad section status", Section{Mode: ModeAct, Status: "done"}},
		{"confidence above one", Section{Mode: ModePlan, RecommendedActAgent: "a", RecommendedActAgentConfidence: float(1.5)}},
		{"negative confidence", Section{Mode: ModePlan, RecommendedActAgent: "a", RecommendedActAgentConfidence: float(-0.1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Update(ctx, id, tt.patch)
			if res.Success || res.Code != CodeValidation {
				t.Errorf("Update = %+v, want %s", res, CodeValidation)
			}
		})
	}

	if doc := s.Get(ctx, id); len(doc.Sections) != 0 {
		t.Errorf("rejected patches changed the document: %+v", doc.Sections)
	}
}

func TestStore_UpdateKeepsExplicitTimestampAndAppendsModesInOrder(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Order").SessionID

	s.Update(ctx, id, Section{Mode: ModeEval, Timestamp: "custom", Notes: []string{"n", "n"}})
	s.Update(ctx, id, Section{Mode: ModePlan, Task: "plan it"})

	doc := s.Get(ctx, id)
	if len(doc.Sections) != 2 || doc.Sections[0].Mode != ModeEval || doc.Sections[1].Mode != ModePlan {
		t.Fatalf("Sections = %+v", doc.Sections)
	}
	if doc.Sections[0].Timestamp != "custom" {
		t.Errorf("Timestamp = %q, want custom", doc.Sections[0].Timestamp)
	}
	if !reflect.DeepEqual(doc.Sections[0].Notes, []string{"n"}) {
		t.Errorf("Notes = %v, want deduped [n]", doc.Sections[0].Notes)
	}
}

func TestStore_GetReturnsIndependentCopies(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Copies").SessionID
	s.Update(ctx, id, Section{Mode: ModePlan, Decisions: []string{"A"}})

	doc := s.Get(ctx, id)
	doc.Sections[0].Decisions[0] = "mutated"
	doc.Metadata.Title = "mutated"

	again := s.Get(ctx, id)
	if again.Metadata.Title != "Copies" || again.Sections[0].Decisions[0] != "A" {
		t.Errorf("cached document was mutated: %+v", again)
	}
}

func TestStore_GetActiveSkipsInactiveSessions(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()

	if doc := s.GetActive(ctx); doc != nil {
		t.Fatalf("GetActive on empty store = %+v", doc)
	}

	alpha := s.Create(ctx, "Alpha").SessionID
	beta := s.Create(ctx, "Beta").SessionID

	if doc := s.GetActive(ctx); doc == nil || doc.Metadata.ID != beta {
		t.Fatalf("GetActive = %v, want %s", doc, beta)
	}

	if res := s.UpdateStatus(ctx, beta, "completed"); !res.Success {
		t.Fatalf("UpdateStatus = %+v", res)
	}
	if doc := s.GetActive(ctx); doc == nil || doc.Metadata.ID != alpha {
		t.Fatalf("GetActive after completing beta = %v, want %s", doc, alpha)
	}

	s.UpdateStatus(ctx, alpha, "archived")
	if doc := s.GetActive(ctx); doc != nil {
		t.Errorf("GetActive with no active sessions = %s", doc.Metadata.ID)
	}
}

func TestStore_UpdateStatus(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Status").SessionID

	if res := s.UpdateStatus(ctx, id, "finished"); res.Success || res.Code != CodeValidation {
		t.Errorf("UpdateStatus(finished) = %+v", res)
	}
	if res := s.UpdateStatus(ctx, id, " Completed "); !res.Success {
		t.Fatalf("UpdateStatus(Completed) = %+v", res)
	}
	if doc := s.Get(ctx, id); doc.Metadata.Status != StatusCompleted {
		t.Errorf("Status = %s", doc.Metadata.Status)
	}
	if res := s.UpdateStatus(ctx, "2026-01-11-nope", "active"); res.Code != CodeNotFound {
		t.Errorf("UpdateStatus on missing session = %+v", res)
	}
}

func TestStore_List(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()

	empty, err := s.List(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("List on empty store = %v, %v", empty, err)
	}

	a := s.Create(ctx, "Alpha").SessionID
	b := s.Create(ctx, "Beta").SessionID
	s.Update(ctx, a, Section{Mode: ModePlan, Task: "p"})
	s.Update(ctx, a, Section{Mode: ModeAct, Task: "a"})

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != b || list[1].ID != a {
		t.Fatalf("List = %+v", list)
	}
	if !reflect.DeepEqual(list[1].Modes, []Mode{ModePlan, ModeAct}) {
		t.Errorf("Modes = %v", list[1].Modes)
	}
}

func TestStore_RecorderReceivesEvents(t *testing.T) {
	spy := &recorderSpy{}
	s, _ := newTestStore(t, "en", WithRecorder(spy))
	ctx := context.Background()

	id := s.Create(ctx, "Record").SessionID
	s.Create(ctx, "Record") // already exists, not recorded
	s.Update(ctx, id, Section{Mode: ModeAct, Decisions: []string{"x"}})
	s.UpdateStatus(ctx, id, "completed")

	want := []string{ActionCreate, ActionUpdate, ActionStatus}
	if got := spy.actions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	if ev := spy.events[1]; ev.SessionID != id || ev.Mode != ModeAct || ev.Detail != "decisions+1" {
		t.Errorf("update event = %+v", ev)
	}
}

func TestStore_RecorderFailureDoesNotFailWrite(t *testing.T) {
	spy := &recorderSpy{err: fmt.Errorf("journal down")}
	s, _ := newTestStore(t, "en", WithRecorder(spy))

	if res := s.Create(context.Background(), "Still Works"); !res.Success {
		t.Errorf("Create = %+v", res)
	}
}

func TestStore_FileOperationTimeout(t *testing.T) {
	fs := slowFs{Fs: afero.NewMemMapFs(), delay: 500 * time.Millisecond}
	s, _ := newTestStore(t, "en", WithFs(fs), WithFileTimeout(20*time.Millisecond))

	res := s.Create(context.Background(), "Slow Disk")
	if res.Success {
		t.Fatal("Create should fail on a slow filesystem")
	}
	if res.Code != CodeIOTimeout {
		t.Errorf("Code = %s, want %s", res.Code, CodeIOTimeout)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestStore_InMemoryFs(t *testing.T) {
	s, cfg := newTestStore(t, "en", WithFs(afero.NewMemMapFs()))
	ctx := context.Background()

	id := s.Create(ctx, "Memory").SessionID
	if _, err := os.Stat(SessionFilePath(cfg.root, id)); !os.IsNotExist(err) {
		t.Errorf("in-memory store touched the real filesystem: %v", err)
	}
	if doc := s.Get(ctx, id); doc == nil || doc.Metadata.Title != "Memory" {
		t.Errorf("Get = %+v", doc)
	}
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Race").SessionID

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Update(ctx, id, Section{Mode: ModePlan, Decisions: []string{fmt.Sprintf("d%02d", i)}})
		}(i)
	}
	wg.Wait()

	doc := s.Get(ctx, id)
	if got := len(doc.Section(ModePlan).Decisions); got != n {
		t.Errorf("got %d decisions, want %d (lost updates)", got, n)
	}
	if got := lockCount(s); got != 0 {
		t.Errorf("%d locks left registered after all updates finished", got)
	}
}

func TestStore_RejectedIDsDoNotRegisterLocks(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("../bad-%d", i)
		if res := s.Update(ctx, id, Section{Mode: ModeAct, Task: "x"}); res.Code != CodeNotFound {
			t.Fatalf("Update(%q) = %+v, want %s", id, res, CodeNotFound)
		}
		if res := s.UpdateStatus(ctx, id, "archived"); res.Code != CodeNotFound {
			t.Fatalf("UpdateStatus(%q) = %+v, want %s", id, res, CodeNotFound)
		}
	}
	// Well-formed ids with no file release their lock as well.
	s.Update(ctx, "2026-01-11-missing", Section{Mode: ModeAct, Task: "x"})

	if got := lockCount(s); got != 0 {
		t.Errorf("lock registry holds %d entries, want 0", got)
	}
}

func TestStore_CreateRejectsMultiLineTitle(t *testing.T) {
	s, cfg := newTestStore(t, "en")

	for _, title := range []string{"Fix bug\n**Status**: archived", "Fix bug\r\nmore"} {
		res := s.Create(context.Background(), title)
		if res.Success || res.Code != CodeValidation {
			t.Errorf("Create(%q) = %+v, want %s", title, res, CodeValidation)
		}
	}
	entries, _ := os.ReadDir(SessionsPath(cfg.root))
	if len(entries) != 0 {
		t.Errorf("rejected titles wrote %d files", len(entries))
	}
}

func TestStore_UpdateRejectsValuesThatBreakTheFormat(t *testing.T) {
	s, _ := newTestStore(t, "en")
	ctx := context.Background()
	id := s.Create(ctx, "Format").SessionID

	tests := []struct {
		name  string
		patch Section
	}{
		{"multi-line decision", Section{Mode: ModePlan, Decisions: []string{"Use REST\nbecause clients expect it"}}},
		{"decision smuggling a section", Section{Mode: ModePlan, Decisions: []string{"x\n## EVAL (now)"}}},
		{"multi-line note", Section{Mode: ModePlan, Notes: []string{"a\rb"}}},
		{"multi-line specialist", Section{Mode: ModePlan, Specialists: []string{"sec\nperf"}}},
		{"specialist with comma", Section{Mode: ModePlan, Specialists: []string{"sec, perf"}}},
		{"multi-line primary agent", Section{Mode: ModePlan, PrimaryAgent: "a\n**Status**: blocked"}},
		{"multi-line recommended agent", Section{Mode: ModePlan, RecommendedActAgent: "a\nb"}},
		{"recommended agent with score suffix", Section{Mode: ModePlan, RecommendedActAgent: "a (Confidence: 0.5)"}},
		{"multi-line timestamp", Section{Mode: ModePlan, Timestamp: "now)\n## ACT (later"}},
		{"task with section header", Section{Mode: ModePlan, Task: "step\n## EVAL (now)"}},
		{"task with field line", Section{Mode: ModePlan, Task: "step\n**Status**: completed"}},
		{"task with block header", Section{Mode: ModePlan, Task: "step\n### Decisions\n- sneaky"}},
		{"task with separator", Section{Mode: ModePlan, Task: "step\n---\nafter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Update(ctx, id, tt.patch)
			if res.Success || res.Code != CodeValidation {
				t.Errorf("Update = %+v, want %s", res, CodeValidation)
			}
		})
	}

	if doc := s.Get(ctx, id); len(doc.Sections) != 0 {
		t.Errorf("rejected patches changed the document: %+v", doc.Sections)
	}
}

func TestStore_MultiParagraphTaskSurvivesReread(t *testing.T) {
	for _, lang := range Languages {
		t.Run(string(lang), func(t *testing.T) {
			s, _ := newTestStore(t, string(lang))
			ctx := context.Background()
			id := s.Create(ctx, "Paragraphs").SessionID

			patch := Section{
				Mode:      ModeAct,
				Task:      "\r\nStep 1: design\r\n\r\nStep 2: build\n   \n",
				Decisions: []string{"Ship it"},
			}
			if res := s.Update(ctx, id, patch); !res.Success {
				t.Fatalf("Update = %+v", res)
			}
			s.Cache().InvalidateAll()

			doc := s.Get(ctx, id)
			act := doc.Section(ModeAct)
			if act.Task != "Step 1: design\n\nStep 2: build" {
				t.Errorf("Task = %q", act.Task)
			}
			if !reflect.DeepEqual(act.Decisions, []string{"Ship it"}) {
				t.Errorf("Decisions = %v", act.Decisions)
			}
		})
	}
}

func TestStore_LanguageSwitchKeepsHistoryReadable(t *testing.T) {
	s, cfg := newTestStore(t, "ko")
	ctx := context.Background()

	res := s.Create(ctx, "인증 구현")
	if res.SessionID != "2026-01-11-인증-구현" {
		t.Fatalf("SessionID = %s", res.SessionID)
	}
	s.Update(ctx, res.SessionID, Section{Mode: ModePlan, Decisions: []string{"REST 사용"}})

	raw, _ := os.ReadFile(res.FilePath)
	if !strings.Contains(string(raw), "### 결정사항") || !strings.Contains(string(raw), "오후 2:30:00") {
		t.Errorf("Korean file missing localized labels:\n%s", raw)
	}

	cfg.setLanguage("en")
	s.Update(ctx, res.SessionID, Section{Mode: ModeAct, Task: "write handlers"})

	doc := s.Get(ctx, res.SessionID)
	if doc.Metadata.Title != "인증 구현" || len(doc.Sections) != 2 {
		t.Fatalf("doc after switch = %+v", doc)
	}
	if !reflect.DeepEqual(doc.Section(ModePlan).Decisions, []string{"REST 사용"}) {
		t.Errorf("PLAN decisions = %v", doc.Section(ModePlan).Decisions)
	}

	raw, _ = os.ReadFile(res.FilePath)
	if strings.Contains(string(raw), "결정사항") || !strings.Contains(string(raw), "### Decisions") {
		t.Errorf("rewritten file should use English labels only:\n%s", raw)
	}
}

func TestStore_ReadsHandEditedMixedLanguageFile(t *testing.T) {
	s, cfg := newTestStore(t, "en")
	ctx := context.Background()

	id := "2026-01-10-hand-edited"
	content := "# セッション: Hand Edited\n\n**Created**: c\n**수정**: u\n**Estado**: active\n\n---\n\n## ACT (t)\n\n### 决策\n- keep it\n"
	if err := os.MkdirAll(SessionsPath(cfg.root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(SessionFilePath(cfg.root, id), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := s.Get(ctx, id)
	if doc == nil {
		t.Fatal("Get returned nil")
	}
	if doc.Metadata.Title != "Hand Edited" || doc.Metadata.UpdatedAt != "u" || doc.Metadata.Status != StatusActive {
		t.Errorf("Metadata = %+v", doc.Metadata)
	}
	if !reflect.DeepEqual(doc.Section(ModeAct).Decisions, []string{"keep it"}) {
		t.Errorf("Decisions = %v", doc.Section(ModeAct).Decisions)
	}
}
