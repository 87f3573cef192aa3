// ABOUTME: StreamingConversationController: folds an answer event stream into turns
// ABOUTME: Owns the turn list and at most one live session; stale sessions are ignored

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/bloop-answer/internal/answer"
)

// DefaultStallTimeout is how long a session may go without any event before
// it is failed as a transport error.
const DefaultStallTimeout = 2 * time.Minute

var (
	// ErrIndexOutOfRange is returned when a viewed-snippets index does not
	// name a turn.
	ErrIndexOutOfRange = errors.New("turn index out of range")

	// ErrStalled is the transport error used when a stream goes quiet.
	ErrStalled = errors.New("event stream stalled")
)

// Stream is an open answer stream that can be torn down.
type Stream interface {
	Close()
}

// StreamHandler receives the payloads of one stream.
type StreamHandler interface {
	OnMessage(payload string)
	OnError(err error)
}

// EventSource opens answer streams. Open must return without invoking h;
// payloads and errors arrive later from another goroutine.
type EventSource interface {
	Open(question, userID string, h StreamHandler) Stream
}

// Recorder persists a conversation after each session ends.
type Recorder interface {
	Record(ctx context.Context, userID, threadID string, turns []Turn) error
}

// State is a snapshot of everything the presentation layer reads.
type State struct {
	ThreadID string
	Turns    []Turn
	// IsLoading is true between a submit and the first event of its stream.
	IsLoading bool
	// CurrentlyViewedSnippets indexes Turns; it follows the newest server turn.
	CurrentlyViewedSnippets int
	// Active is true while a session is open.
	Active bool
}

// LastServerResponse returns the most recent server turn in the snapshot.
func (s State) LastServerResponse() (Turn, bool) {
	return lastServerTurn(s.Turns)
}

// Controller owns one conversation. All methods are safe for concurrent use.
type Controller struct {
	mu           sync.Mutex
	source       EventSource
	userID       string
	threadID     string
	turns        []Turn
	loading      bool
	viewed       int
	session      *session
	closed       bool
	stallTimeout time.Duration

	recorder   Recorder
	recordMu   sync.Mutex
	recordSeq  uint64
	recordedAt uint64
	pending    sync.WaitGroup

	updates     *Broadcaster
	ownsUpdates bool
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder persists the conversation whenever a session ends.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithStallTimeout overrides DefaultStallTimeout. Zero disables stall detection.
func WithStallTimeout(d time.Duration) Option {
	return func(c *Controller) { c.stallTimeout = d }
}

// WithBroadcaster publishes state updates on a shared broadcaster instead of
// a private one.
func WithBroadcaster(b *Broadcaster) Option {
	return func(c *Controller) {
		if b != nil {
			c.updates = b
			c.ownsUpdates = false
		}
	}
}

// New creates a controller for a fresh conversation.
func New(source EventSource, userID string, opts ...Option) *Controller {
	return newController(source, userID, uuid.New().String(), nil, opts)
}

// Resume creates a controller continuing a stored conversation. Turns that
// were saved mid-stream are no longer loading.
func Resume(source EventSource, userID, threadID string, turns []Turn, opts ...Option) *Controller {
	restored := cloneTurns(turns)
	for i := range restored {
		restored[i].IsLoading = false
	}
	return newController(source, userID, threadID, restored, opts)
}

func newController(source EventSource, userID, threadID string, turns []Turn, opts []Option) *Controller {
	c := &Controller{
		source:       source,
		userID:       userID,
		threadID:     threadID,
		turns:        turns,
		stallTimeout: DefaultStallTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.updates == nil {
		c.updates = NewBroadcaster(c.logger)
		c.ownsUpdates = true
	}
	c.logger = c.logger.With("component", "conversation", "thread_id", threadID)
	c.viewed = max(len(c.turns)-1, 0)
	return c
}

// ThreadID identifies this conversation across saves.
func (c *Controller) ThreadID() string {
	return c.threadID
}

// Submit appends a user turn and starts a session for it, superseding any
// open session. It never blocks on the network.
func (c *Controller) Submit(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Warn("submit on closed conversation ignored")
		return
	}

	c.turns = append(c.turns, Turn{Author: AuthorUser, Text: message})
	c.startSessionLocked(message)
	c.notifyLocked()
}

// startSessionLocked opens a stream for question. Must be called with mu held.
func (c *Controller) startSessionLocked(question string) {
	c.loading = true
	c.supersedeLocked()

	s := &session{
		id:    uuid.New().String(),
		state: stateAwaitingHeader,
	}
	c.session = s
	s.stream = c.source.Open(question, c.userID, &sessionHandler{c: c, s: s})

	c.turns = append(c.turns, Turn{Author: AuthorServer, IsLoading: true})
	s.turn = len(c.turns) - 1
	c.viewed = s.turn
	c.armStallLocked(s)

	c.logger.Debug("session started", "session_id", s.id, "turn", s.turn)
}

// supersedeLocked closes the active session, freezing its turn as it stands.
func (c *Controller) supersedeLocked() {
	s := c.session
	if s == nil {
		return
	}
	s.state = stateCancelled
	c.turns[s.turn].IsLoading = false
	c.finishLocked(s)
	c.logger.Debug("session superseded", "session_id", s.id)
}

// finishLocked tears down s and clears it as the active session.
func (c *Controller) finishLocked(s *session) {
	if s.stall != nil {
		s.stall.Stop()
	}
	if s.stream != nil {
		s.stream.Close()
	}
	if c.session == s {
		c.session = nil
	}
}

// onStreamEvent handles one payload from s.
func (c *Controller) onStreamEvent(s *session, payload string) {
	c.mu.Lock()
	ended := c.handleEventLocked(s, payload)
	job := c.recordJobLocked(ended)
	c.mu.Unlock()

	c.record(job)
}

// handleEventLocked applies payload to the session's turn and reports whether
// the session reached a terminal state.
func (c *Controller) handleEventLocked(s *session, payload string) bool {
	if c.session != s || s.state.terminal() {
		return false
	}

	if answer.IsDone(payload) {
		s.state = stateDone
		c.turns[s.turn].IsLoading = false
		c.finishLocked(s)
		c.logger.Debug("session done", "session_id", s.id, "query_id", s.queryID)
		c.notifyLocked()
		return true
	}

	ev, err := answer.ParseEvent(payload)
	if err != nil {
		c.failTransportLocked(s, err)
		return true
	}

	c.touchStallLocked(s)

	switch s.state {
	case stateAwaitingHeader:
		c.loading = false
		if ev.Err != "" {
			s.state = stateFailed
			c.turns[s.turn] = Turn{Author: AuthorServer, Error: ev.Err}
			c.finishLocked(s)
			c.logger.Info("answer failed", "session_id", s.id, "error", ev.Err)
			c.notifyLocked()
			return true
		}
		s.queryID = ev.QueryID
		s.state = stateStreamingTokens
		c.turns[s.turn] = Turn{
			Author:    AuthorServer,
			IsLoading: true,
			Snippets:  answer.MapSnippets(ev.Snippets),
			QueryID:   ev.QueryID,
		}
	case stateStreamingTokens:
		c.turns[s.turn].Text += ev.Ok
	}

	c.notifyLocked()
	return false
}

// onStreamError handles a transport failure of s.
func (c *Controller) onStreamError(s *session, err error) {
	c.mu.Lock()
	ended := false
	if c.session == s && !s.state.terminal() {
		c.failTransportLocked(s, err)
		ended = true
	}
	job := c.recordJobLocked(ended)
	c.mu.Unlock()

	c.record(job)
}

// failTransportLocked appends the generic failure turn and ends s. The
// in-flight turn keeps its text and snippets.
func (c *Controller) failTransportLocked(s *session, err error) {
	s.state = stateFailed
	c.loading = false
	c.turns[s.turn].IsLoading = false
	c.turns = append(c.turns, Turn{Author: AuthorServer, Error: TransportErrorMessage})
	c.viewed = len(c.turns) - 1
	c.finishLocked(s)

	c.logger.Warn("answer stream failed", "session_id", s.id, "error", err)
	c.notifyLocked()
}

func (c *Controller) armStallLocked(s *session) {
	if c.stallTimeout <= 0 {
		return
	}
	s.stall = time.AfterFunc(c.stallTimeout, func() {
		c.onStreamError(s, ErrStalled)
	})
}

func (c *Controller) touchStallLocked(s *session) {
	if s.stall != nil {
		s.stall.Reset(c.stallTimeout)
	}
}

// SetCurrentlyViewedSnippets points the view at turn index. It stays there
// until a new server turn is appended.
func (c *Controller) SetCurrentlyViewedSnippets(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.turns) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(c.turns))
	}
	c.viewed = index
	c.notifyLocked()
	return nil
}

// CurrentlyViewedSnippets returns the turn index currently being viewed.
func (c *Controller) CurrentlyViewedSnippets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewed
}

// Conversation returns a copy of the turns.
func (c *Controller) Conversation() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTurns(c.turns)
}

// IsLoading reports whether the controller awaits the first event of a session.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastServerResponse returns the most recent server turn.
func (c *Controller) LastServerResponse() (Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := lastServerTurn(c.turns)
	return t.clone(), ok
}

// State returns a snapshot of the conversation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		ThreadID:                c.threadID,
		Turns:                   cloneTurns(c.turns),
		IsLoading:               c.loading,
		CurrentlyViewedSnippets: c.viewed,
		Active:                  c.session != nil,
	}
}

// Subscribe returns a channel of state snapshots, one per change. The
// subscription ends when ctx is cancelled or the controller is closed.
func (c *Controller) Subscribe(ctx context.Context) <-chan State {
	ch, _ := c.updates.Subscribe(ctx, c.threadID)
	return ch
}

func (c *Controller) notifyLocked() {
	c.updates.Publish(c.threadID, c.stateLocked(), "")
}

// Close ends the active session and stops accepting submits. It returns
// once every save started before it has finished.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	wasActive := c.session != nil
	c.supersedeLocked()
	c.loading = false
	if wasActive {
		c.notifyLocked()
	}
	job := c.recordJobLocked(wasActive)
	c.mu.Unlock()

	c.record(job)
	c.pending.Wait()
	if c.ownsUpdates {
		c.updates.Close()
	}
}

// recordJob is a conversation snapshot waiting to be persisted.
type recordJob struct {
	seq   uint64
	turns []Turn
}

func (c *Controller) recordJobLocked(ended bool) *recordJob {
	if !ended || c.recorder == nil {
		return nil
	}
	c.recordSeq++
	c.pending.Add(1)
	return &recordJob{seq: c.recordSeq, turns: cloneTurns(c.turns)}
}

// record persists job unless a newer snapshot has already been written.
func (c *Controller) record(job *recordJob) {
	if job == nil {
		return
	}
	defer c.pending.Done()

	c.recordMu.Lock()
	defer c.recordMu.Unlock()

	if job.seq <= c.recordedAt {
		return
	}
	if err := c.recorder.Record(context.Background(), c.userID, c.threadID, job.turns); err != nil {
		c.logger.Error("failed to record conversation", "error", err)
		return
	}
	c.recordedAt = job.seq
}

func lastServerTurn(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Author == AuthorServer {
			return turns[i], true
		}
	}
	return Turn{}, false
}
