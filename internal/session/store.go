package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// ConfigProvider supplies the settings the store reads on every operation.
// Language is re-read each time so a changed setting applies to the next write.
type ConfigProvider interface {
	Language() string
	ProjectRoot() string
}

// Recorder receives an Event after every successful write.
// Recorder failures are logged and never fail the write.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Store is the Document Store: it composes the parser, serializer and cache
// over the filesystem and implements create/get/getActive/update.
type Store struct {
	cfg         ConfigProvider
	cache       *Cache
	fs          afero.Fs
	logger      *log.Logger
	recorder    Recorder
	fileTimeout time.Duration

	// locks serializes writes per session id. Entries are dropped once no
	// caller holds or waits on them.
	locksMu sync.Mutex
	locks   map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Store.
type Option func(*Store)

// WithCache injects the cache. A store without one gets a default cache.
func WithCache(c *Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogger sets the logger used for infrastructure failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecorder attaches an activity recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithFileTimeout overrides DefaultFileTimeout.
func WithFileTimeout(d time.Duration) Option {
	return func(s *Store) { s.fileTimeout = d }
}

// WithFs swaps the filesystem, e.g. for an in-memory one.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// NewStore creates a Document Store.
func NewStore(cfg ConfigProvider, opts ...Option) *Store {
	s := &Store{
		cfg:         cfg,
		fs:          afero.NewOsFs(),
		fileTimeout: DefaultFileTimeout,
		locks:       make(map[string]*idLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Cache exposes the store's cache, mainly for diagnostics.
func (s *Store) Cache() *Cache {
	return s.cache
}

// ProjectRoot is the directory docs/codingbuddy/sessions hangs off.
func (s *Store) ProjectRoot() string {
	return s.cfg.ProjectRoot()
}

// Language is the language new writes are rendered in.
func (s *Store) Language() Language {
	return ParseLanguage(s.cfg.Language())
}

// --- Create ---

// Create starts a new session document for title. The id is
// <YYYY-MM-DD>-<slug>; if that file already exists the existing session is
// returned with Created=false and nothing is written.
func (s *Store) Create(ctx context.Context, title string) Result {
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		s.logger.Debug("rejected session title", "err", err)
		return failure(CodeValidation, wrapValidationError(err), err)
	}

	lang := s.Language()
	now := timeNow()
	id := SessionID(now.Format("2006-01-02"), title, lang)

	unlock := s.lock(id)
	defer unlock()

	path, err := resolveSessionPath(s.cfg.ProjectRoot(), id)
	if err != nil {
		return failure(CodeValidation, wrapValidationError(err), err)
	}

	found, err := s.exists(ctx, path)
	if err != nil {
		return s.ioFailure("create", id, path, err)
	}
	if found {
		return Result{Success: true, Created: false, SessionID: id, FilePath: path}
	}

	stamp := now.UTC().Format(time.RFC3339)
	doc := &Document{
		Metadata: Metadata{
			ID:        id,
			Title:     title,
			CreatedAt: stamp,
			UpdatedAt: stamp,
			Status:    StatusActive,
		},
	}

	if err := s.writeFile(ctx, path, Serialize(doc, lang)); err != nil {
		return s.ioFailure("create", id, path, err)
	}

	// The newest session may now be the active one.
	s.cache.InvalidateActive()
	s.record(ctx, Event{SessionID: id, Action: ActionCreate, Detail: title, At: stamp})

	s.logger.Info("session created", "session_id", id, "language", lang)
	return Result{Success: true, Created: true, SessionID: id, FilePath: path}
}

// --- Read ---

// Get returns the session document for id, or nil. Invalid ids, missing
// files and read failures all yield nil so callers cannot probe the
// filesystem layout.
func (s *Store) Get(ctx context.Context, id string) *Document {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil
	}
	return doc.Clone()
}

// load returns the cached document when fresh, otherwise reads and caches
// it. The returned document is shared with the cache and must not be
// mutated. Errors are ErrSessionNotFound or an infrastructure error.
func (s *Store) load(ctx context.Context, id string) (*Document, error) {
	if doc, ok := s.cache.Get(id); ok {
		return doc, nil
	}

	if err := ValidateSessionID(id); err != nil {
		s.logger.Debug("rejected session id", "err", err)
		return nil, ErrSessionNotFound
	}
	path, err := resolveSessionPath(s.cfg.ProjectRoot(), id)
	if err != nil {
		s.logger.Warn("session path rejected", "session_id", id, "err", err)
		return nil, ErrSessionNotFound
	}

	data, err := s.readFile(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("reading session", "op", "get", "session_id", id, "path", path, "err", err)
		return nil, err
	}

	doc := Parse(string(data), id)
	s.cache.Set(id, doc)
	return doc, nil
}

// GetActive returns the most recent session whose status is active, or nil.
func (s *Store) GetActive(ctx context.Context) *Document {
	if id, ok := s.cache.ActiveID(); ok {
		if doc := s.Get(ctx, id); doc != nil && doc.Metadata.Status == StatusActive {
			return doc
		}
		s.cache.InvalidateActive()
	}

	ids, err := s.listIDs(ctx)
	if err != nil {
		s.logger.Error("listing sessions", "op", "get_active", "err", err)
		return nil
	}

	for _, id := range ids {
		doc := s.Get(ctx, id)
		if doc != nil && doc.Metadata.Status == StatusActive {
			s.cache.SetActiveID(id)
			return doc
		}
	}
	return nil
}

// List summarizes every readable session, newest filename first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.listIDs(ctx)
	if err != nil {
		return nil, wrapIOError(err)
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		doc := s.Get(ctx, id)
		if doc == nil {
			continue
		}
		sum := Summary{
			ID:        id,
			Title:     doc.Metadata.Title,
			Status:    doc.Metadata.Status,
			UpdatedAt: doc.Metadata.UpdatedAt,
		}
		for _, sec := range doc.Sections {
			sum.Modes = append(sum.Modes, sec.Mode)
		}
		out = append(out, sum)
	}
	return out, nil
}

// --- Write ---

// Update merges patch into the section for patch.Mode (appending a new
// section if the mode has none yet), bumps updatedAt and rewrites the file.
// Only this session's cache entry is invalidated.
func (s *Store) Update(ctx context.Context, id string, patch Section) Result {
	mode, err := ParseMode(string(patch.Mode))
	if err != nil {
		return failure(CodeValidation, wrapValidationError(err), err)
	}
	patch.Mode = mode
	patch.Task = normalizeTask(patch.Task)
	if err := validatePatch(&patch); err != nil {
		return failure(CodeValidation, wrapValidationError(err), err)
	}

	return s.mutate(ctx, id, ActionUpdate, func(doc *Document, lang Language, now time.Time) Event {
		if patch.Timestamp == "" {
			patch.Timestamp = FormatTimestamp(now, lang)
		}
		if existing := doc.Section(mode); existing != nil {
			*existing = MergeSection(*existing, patch)
		} else {
			doc.Sections = append(doc.Sections, normalizeSection(patch))
		}
		return Event{Mode: mode, Detail: summarizePatch(patch)}
	})
}

// UpdateStatus sets the document-level status (active, completed, archived).
func (s *Store) UpdateStatus(ctx context.Context, id, status string) Result {
	st, err := ParseStatus(status)
	if err != nil {
		return failure(CodeValidation, wrapValidationError(err), err)
	}

	return s.mutate(ctx, id, ActionStatus, func(doc *Document, _ Language, _ time.Time) Event {
		doc.Metadata.Status = st
		return Event{Detail: string(st)}
	})
}

// mutate runs the shared load → change → serialize → write → invalidate
// sequence under the per-id lock.
func (s *Store) mutate(ctx context.Context, id, action string, change func(*Document, Language, time.Time) Event) Result {
	if err := ValidateSessionID(id); err != nil {
		s.logger.Debug("rejected session id", "err", err)
		cause := fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		return failure(CodeNotFound, wrapNotFoundError(cause), cause)
	}

	unlock := s.lock(id)
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			cause := fmt.Errorf("%w: %s", ErrSessionNotFound, id)
			return failure(CodeNotFound, wrapNotFoundError(cause), cause)
		}
		return s.ioFailure(action, id, "", err)
	}

	path, err := resolveSessionPath(s.cfg.ProjectRoot(), id)
	if err != nil {
		return failure(CodeValidation, wrapValidationError(err), err)
	}

	lang := s.Language()
	now := timeNow()
	doc := current.Clone()
	ev := change(doc, lang, now)
	doc.Metadata.UpdatedAt = now.UTC().Format(time.RFC3339)

	if err := s.writeFile(ctx, path, Serialize(doc, lang)); err != nil {
		return s.ioFailure(action, id, path, err)
	}
	s.cache.Invalidate(id)

	ev.SessionID = id
	ev.Action = action
	ev.At = doc.Metadata.UpdatedAt
	s.record(ctx, ev)

	return Result{Success: true, SessionID: id, FilePath: path}
}

func (s *Store) ioFailure(op, id, path string, err error) Result {
	s.logger.Error("session file operation failed", "op", op, "session_id", id, "path", path, "err", err)
	return failure(ioCode(err), wrapIOError(err), err)
}

func (s *Store) record(ctx context.Context, ev Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Warn("recording session event", "session_id", ev.SessionID, "action", ev.Action, "err", err)
	}
}

// lock acquires the mutex for id and returns its release function.
func (s *Store) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

func summarizePatch(p Section) string {
	var parts []string
	if p.Status != "" {
		parts = append(parts, "status="+string(p.Status))
	}
	if p.Task != "" {
		parts = append(parts, "task")
	}
	if n := len(p.Decisions); n > 0 {
		parts = append(parts, fmt.Sprintf("decisions+%d", n))
	}
	if n := len(p.Notes); n > 0 {
		parts = append(parts, fmt.Sprintf("notes+%d", n))
	}
	return strings.Join(parts, " ")
}
