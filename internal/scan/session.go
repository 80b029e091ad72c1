package scan

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/shoplist/internal/service"
)

// ErrSessionNotFound is returned for unknown or reaped session ids.
var ErrSessionNotFound = errors.New("scan session not found")

var errSessionClosed = errors.New("scan session closed")

type State string

const (
	StateScanning  State = "scanning"
	StateResolving State = "resolving"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Session is a snapshot of one capture run, from opening the camera to the
// first decoded barcode.
type Session struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	State     State     `json:"state"`
	Barcode   string    `json:"barcode,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Resolved  bool      `json:"resolved"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BarcodeAdder is the product side of a scan.
type BarcodeAdder interface {
	AddProductFromBarcode(ctx context.Context, listID, barcode string) <-chan service.BarcodeResult
}

type entry struct {
	session Session
	cancel  context.CancelFunc
	ctx     context.Context
	done    chan struct{}
	// committing is set once the product write has claimed the session; the
	// session can no longer be cancelled after that.
	committing bool
}

func (e *entry) finish(state State, now time.Time) {
	e.session.State = state
	e.session.UpdatedAt = now
	e.cancel()
	close(e.done)
}

// Manager tracks scan sessions. A session accepts exactly one barcode; later
// decode events are ignored, and cancelling a session discards any lookup
// still in flight.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	adder      BarcodeAdder
	base       context.Context
	ttl        time.Duration
	interval   time.Duration
	onComplete func(Session)
	logger     *slog.Logger
}

// NewManager creates a session manager. Session contexts derive from base,
// so cancelling base ends every open session.
func NewManager(base context.Context, adder BarcodeAdder, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*entry),
		adder:    adder,
		base:     base,
		ttl:      ttl,
		interval: time.Minute,
		logger:   logger,
	}
}

// OnComplete registers a callback invoked once per session that ends in
// completed or failed. It runs without the manager lock held.
func (m *Manager) OnComplete(fn func(Session)) {
	m.mu.Lock()
	m.onComplete = fn
	m.mu.Unlock()
}

func (m *Manager) Start(listID string) Session {
	ctx, cancel := context.WithCancel(m.base)
	now := time.Now().UTC()
	e := &entry{
		session: Session{
			ID:        uuid.NewString(),
			ListID:    listID,
			State:     StateScanning,
			StartedAt: now,
			UpdatedAt: now,
		},
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[e.session.ID] = e
	m.mu.Unlock()

	m.logger.Debug("scan session started", "session_id", e.session.ID, "list_id", listID)
	return e.session
}

func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

// Done returns a channel closed when the session reaches a terminal state.
func (m *Manager) Done(id string) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.done, nil
}

// Deliver hands a decoded barcode to the session. Only the first payload is
// accepted; accepted reports whether this call was it.
func (m *Manager) Deliver(id, barcode string) (s Session, accepted bool, err error) {
	barcode = strings.TrimSpace(barcode)

	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, false, ErrSessionNotFound
	}
	if e.session.State != StateScanning || barcode == "" {
		s = e.session
		m.mu.Unlock()
		return s, false, nil
	}
	e.session.State = StateResolving
	e.session.Barcode = barcode
	e.session.UpdatedAt = time.Now().UTC()
	s = e.session
	m.mu.Unlock()

	ctx := service.WithCommitCheck(e.ctx, func() error { return m.claim(id) })
	results := m.adder.AddProductFromBarcode(ctx, s.ListID, barcode)
	go m.await(id, results)

	m.logger.Debug("scan session resolving", "session_id", id, "barcode", barcode)
	return s, true, nil
}

// claim runs inside the product write transaction. It fails if the session
// was cancelled or reaped, otherwise it pins the session to the commit.
func (m *Manager) claim(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.session.State != StateResolving {
		return errSessionClosed
	}
	e.committing = true
	return nil
}

func (m *Manager) await(id string, results <-chan service.BarcodeResult) {
	res := <-results

	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.session.State != StateResolving {
		m.mu.Unlock()
		m.logger.Debug("scan result discarded", "session_id", id, "discarded", res.Discarded)
		return
	}

	state := StateCompleted
	if res.Err != nil {
		state = StateFailed
		e.session.Error = res.Err.Error()
	} else {
		e.session.ProductID = res.Product.ID
		e.session.Resolved = res.Resolved
	}
	e.finish(state, time.Now().UTC())
	s := e.session
	fn := m.onComplete
	m.mu.Unlock()

	if state == StateFailed {
		m.logger.Warn("scan failed", "session_id", id, "error", res.Err)
	}
	if fn != nil {
		fn(s)
	}
}

// Cancel ends a session that has not finished. Cancelling a finished session
// is a no-op, and so is cancelling one whose product is already being
// committed: that session is returned still resolving and completes normally.
func (m *Manager) Cancel(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if e.committing {
		m.logger.Debug("scan session already committing, cancel ignored", "session_id", id)
		return e.session, nil
	}
	if !e.session.State.terminal() {
		e.finish(StateCancelled, time.Now().UTC())
		m.logger.Debug("scan session cancelled", "session_id", id)
	}
	return e.session, nil
}

// Reap cancels sessions older than the TTL and forgets them.
func (m *Manager) Reap() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if e.session.UpdatedAt.After(cutoff) {
			continue
		}
		// A claimed write still reports back through await.
		if e.committing && !e.session.State.terminal() {
			continue
		}
		if !e.session.State.terminal() {
			e.finish(StateCancelled, time.Now().UTC())
		}
		delete(m.sessions, id)
		n++
	}
	return n
}

// Run reaps expired sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Debug("reaped scan sessions", "count", n)
			}
		}
	}
}
