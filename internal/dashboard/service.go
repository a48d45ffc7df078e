// Package dashboard ties the form state machine to the log store. It owns the
// session registry, performs the effects produced by form commands, and keeps
// a cached snapshot of the log for the plotting and export views.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"experiment-logger/internal/config"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
	"experiment-logger/internal/store"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoreUnavailable = errors.New("log store unavailable")
)

// DefaultSessionTTL is how long an idle session is kept
const DefaultSessionTTL = 24 * time.Hour

// Options configures a Service
type Options struct {
	RecentRows int
	MaxSize    float64
	SessionTTL time.Duration
	// Now is the clock used for timestamps; time.Now when nil
	Now func() time.Time
}

// Service is shared by every HTTP handler
type Service struct {
	mu       sync.Mutex
	schema   *config.Schema
	store    *store.LogStore
	logger   *zap.Logger
	opts     Options
	sessions map[string]*session
	snapshot *model.Snapshot
}

type session struct {
	mu       sync.Mutex
	id       string
	state    form.State
	flash    []model.Message
	lastSeen time.Time
}

// New creates a service over a schema and a store
func New(schema *config.Schema, logStore *store.LogStore, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RecentRows <= 0 {
		opts.RecentRows = 20
	}
	if opts.MaxSize < pipeline.MinBubbleSize {
		opts.MaxSize = 40
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		schema:   schema,
		store:    logStore,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Schema returns the schema given to new sessions
func (s *Service) Schema() *config.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// SetSchema swaps the schema. Existing sessions keep the one they started with.
func (s *Service) SetSchema(schema *config.Schema) {
	s.mu.Lock()
	s.schema = schema
	s.mu.Unlock()
	s.logger.Info("Schema replaced", zap.Int("groups", len(schema.Groups)))
}

// Options returns the effective options
func (s *Service) Options() Options {
	return s.opts
}

// NewSession starts a form session. Its counters are seeded from the log;
// when the log cannot be read they start from their configured start value.
func (s *Service) NewSession(ctx context.Context) string {
	id := uuid.New().String()
	sess := &session{id: id, state: form.New(s.Schema()), lastSeen: s.opts.Now()}

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := s.resyncLocked(ctx, sess); err != nil {
		s.logger.Warn("Could not seed counters for new session", zap.String("session", id), zap.Error(err))
		sess.flash = append(sess.flash, model.Message{
			Level: model.LevelWarning,
			Text:  fmt.Sprintf("Could not read counters from the log: %v", err),
		})
	}
	s.logger.Debug("Session started", zap.String("session", id))
	return id
}

// Ensure returns id when it names a live session, otherwise starts a new one
func (s *Service) Ensure(ctx context.Context, id string) (string, bool) {
	if _, err := s.lookup(id); err == nil {
		return id, false
	}
	return s.NewSession(ctx), true
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	sess.lastSeen = s.opts.Now()
	return sess, nil
}

// pruneLocked drops sessions idle for longer than the TTL. s.mu must be held.
func (s *Service) pruneLocked() {
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			s.logger.Debug("Session expired", zap.String("session", id))
		}
	}
}

// SessionCount returns the number of live sessions
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// State returns a session's current form state
func (s *Service) State(id string) (form.State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return form.State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}

// Dispatch applies a command to a session and performs the resulting effects
// in order. A row append is written to the store and its outcome is fed back
// as RowLogged or WriteFailed. Rejected commands leave the state unchanged and
// are returned as an error.
func (s *Service) Dispatch(ctx context.Context, id string, cmd form.Command) ([]model.Message, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.dispatchLocked(ctx, sess, cmd)
}

func (s *Service) dispatchLocked(ctx context.Context, sess *session, cmd form.Command) ([]model.Message, error) {
	var (
		msgs     []model.Message
		rejected []error
	)
	queue := []form.Command{cmd}
	for len(queue) > 0 {
		next, effects := form.Apply(sess.state, queue[0])
		queue = queue[1:]
		sess.state = next

		for _, e := range effects {
			switch eff := e.(type) {
			case form.Notify:
				msgs = append(msgs, eff.Message)
			case form.Rejected:
				rejected = append(rejected, eff.Err)
			case form.AppendRow:
				queue = append(queue, s.appendRow(ctx, sess.id, eff.Row))
			}
		}
	}
	return msgs, errors.Join(rejected...)
}

func (s *Service) appendRow(ctx context.Context, sessionID string, row model.LogRow) form.Command {
	if err := s.store.Append(ctx, row); err != nil {
		s.logger.Error("Failed to log run",
			zap.String("session", sessionID),
			zap.Error(err),
		)
		return form.WriteFailed{Err: err}
	}
	s.invalidate()
	s.logger.Info("Run logged",
		zap.String("session", sessionID),
		zap.String("run", form.RunID(row)),
		zap.String("timestamp", row.Timestamp()),
	)
	return form.RowLogged{Row: row}
}

// Submit validates and logs the session's form stamped with the service clock
func (s *Service) Submit(ctx context.Context, id string) ([]model.Message, error) {
	return s.Dispatch(ctx, id, form.Submit{At: s.opts.Now()})
}

// Resync recomputes every counter of the session from the log. When the log
// cannot be read the local counters are kept and a warning is returned.
func (s *Service) Resync(ctx context.Context, id string) ([]model.Message, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	msgs, err := s.resyncLocked(ctx, sess)
	if err != nil {
		s.logger.Warn("Counter resync failed", zap.String("session", id), zap.Error(err))
		return []model.Message{{
			Level: model.LevelWarning,
			Text:  fmt.Sprintf("Could not resync counters: %v", err),
		}}, nil
	}
	if len(msgs) == 0 {
		return []model.Message{{Level: model.LevelInfo, Text: "No counters to synchronize"}}, nil
	}
	s.logger.Info("Counters resynced", zap.String("session", id))
	return msgs, nil
}

// resyncLocked reads the history of every counter column and applies it,
// returning the messages of the sync. sess.mu must be held.
func (s *Service) resyncLocked(ctx context.Context, sess *session) ([]model.Message, error) {
	cols := form.AutoIncrementColumns(sess.state.Schema)
	if len(cols) == 0 {
		return nil, nil
	}
	history := make(map[string][]string, len(cols))
	for _, col := range cols {
		values, err := s.store.ColumnValues(ctx, col)
		if err != nil {
			return nil, err
		}
		history[col] = values
	}
	return s.dispatchLocked(ctx, sess, form.SyncCounters{History: history})
}

// Flash queues messages to show on the session's next page view
func (s *Service) Flash(id string, msgs ...model.Message) {
	sess, err := s.lookup(id)
	if err != nil {
		return
	}
	sess.mu.Lock()
	sess.flash = append(sess.flash, msgs...)
	sess.mu.Unlock()
}

// TakeFlash returns and clears the queued messages
func (s *Service) TakeFlash(id string) []model.Message {
	sess, err := s.lookup(id)
	if err != nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	msgs := sess.flash
	sess.flash = nil
	return msgs
}

// Snapshot returns the cached log, loading it on first use
func (s *Service) Snapshot(ctx context.Context) model.Snapshot {
	s.mu.Lock()
	cached := s.snapshot
	s.mu.Unlock()
	if cached != nil {
		return *cached
	}
	return s.Refresh(ctx)
}

// Refresh reloads the log into the cache. A failed load is returned but not
// cached, so the next view retries.
func (s *Service) Refresh(ctx context.Context) model.Snapshot {
	snap := s.store.Load(ctx)
	if snap.Warning == "" {
		s.mu.Lock()
		s.snapshot = &snap
		s.mu.Unlock()
		s.logger.Debug("Log snapshot refreshed", zap.Int("rows", snap.Table.Len()))
	}
	return snap
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

// RowCount returns the number of logged runs
func (s *Service) RowCount(ctx context.Context) (int, error) {
	n, err := s.store.RowCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Recent returns the newest rows of the cached log
func (s *Service) Recent(ctx context.Context) (pipeline.Summary, string) {
	snap := s.Snapshot(ctx)
	return pipeline.Summarize(snap.Table, s.opts.RecentRows), snap.Warning
}

// Export writes a fresh snapshot of the whole log
func (s *Service) Export(ctx context.Context, w io.Writer, format string) (model.ExportResult, error) {
	snap := s.Refresh(ctx)
	if snap.Warning != "" {
		return model.ExportResult{}, fmt.Errorf("%w: %s", ErrStoreUnavailable, snap.Warning)
	}
	res, err := pipeline.ExportTable(w, snap.Table, format, s.opts.Now())
	if err != nil {
		return model.ExportResult{}, err
	}
	s.logger.Info("Log exported", zap.String("format", res.Format), zap.Int("rows", res.RecordCount))
	return res, nil
}
