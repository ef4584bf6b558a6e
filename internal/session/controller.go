// controller.go - Per-conversation lifecycle state machine

package session

import (
	"errors"
	"log"
	"sync"
	"time"
)

// Phase is the lifecycle stage of one conversation.
type Phase int

const (
	Idle Phase = iota
	Active
	AwaitingAcknowledgement
)

func (p Phase) String() string {
	switch p {
	case Active:
		return "active"
	case AwaitingAcknowledgement:
		return "awaiting_acknowledgement"
	default:
		return "idle"
	}
}

var (
	// ErrNotActive is returned when an image arrives outside the Active phase.
	ErrNotActive = errors.New("session not active")
	// ErrBusy is returned when a reconciliation is already in flight.
	ErrBusy = errors.New("reconciliation already in progress")
)

// state is one conversation's entry. Entries are created implicitly and
// reused forever; an absent entry is equivalent to Idle.
type state struct {
	phase          Phase
	lastTransition time.Time
	busy           bool
	expiry         *time.Timer
	generation     uint64 // invalidates stale expiry callbacks
}

// Controller owns the session map and is the only writer of session
// state. The mutex is held only across a single read/transition, never
// across network calls, so independent conversations never block each
// other for long.
type Controller struct {
	mu        sync.Mutex
	sessions  map[string]*state
	ackWindow time.Duration
}

// NewController creates a Controller with the given acknowledgement
// expiry window.
func NewController(ackWindow time.Duration) *Controller {
	return &Controller{
		sessions:  make(map[string]*state),
		ackWindow: ackWindow,
	}
}

// Phase returns the conversation's current phase.
func (c *Controller) Phase(conversationID string) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[conversationID]
	if !ok {
		return Idle
	}
	return s.phase
}

// Trigger activates a conversation. From Idle the session becomes
// Active; an already Active session stays Active untouched (idempotent).
// From AwaitingAcknowledgement the trigger counts as the acknowledgement
// and immediately starts a fresh activation.
func (c *Controller) Trigger(conversationID string) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(conversationID)
	switch s.phase {
	case Active:
		// No reset, no duplicate state.
		return Active
	case AwaitingAcknowledgement:
		c.cancelExpiry(s)
	}
	c.transition(conversationID, s, Active)
	return Active
}

// BeginReconciliation marks the conversation busy. Fails when the
// session is not Active or a reconciliation is already running; only one
// may be in flight per conversation.
func (c *Controller) BeginReconciliation(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(conversationID)
	if s.phase != Active {
		return ErrNotActive
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// AbortReconciliation clears the busy flag without leaving Active, for
// requests rejected before the engine ran (e.g. unknown spot).
func (c *Controller) AbortReconciliation(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[conversationID]; ok {
		s.busy = false
	}
}

// CompleteReconciliation records a delivered report: the session moves
// to AwaitingAcknowledgement and the expiry timer is armed. The timer is
// a deferred callback, not a poll, and a later transition cancels it.
func (c *Controller) CompleteReconciliation(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(conversationID)
	s.busy = false
	c.transition(conversationID, s, AwaitingAcknowledgement)

	gen := s.generation
	s.expiry = time.AfterFunc(c.ackWindow, func() {
		c.expire(conversationID, gen)
	})
}

// Acknowledge consumes any free text while awaiting acknowledgement and
// returns the session to Idle. Returns false when the text arrived in a
// phase where it is simply ignored.
func (c *Controller) Acknowledge(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[conversationID]
	if !ok || s.phase != AwaitingAcknowledgement {
		return false
	}
	c.cancelExpiry(s)
	c.transition(conversationID, s, Idle)
	return true
}

// expire fires from the deferred timer. The generation guard makes the
// Idle transition happen exactly once even if the timer races with an
// acknowledgement.
func (c *Controller) expire(conversationID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[conversationID]
	if !ok || s.phase != AwaitingAcknowledgement || s.generation != gen {
		return
	}
	s.expiry = nil
	c.transition(conversationID, s, Idle)
	log.Printf("[%s] session expired without acknowledgement", conversationID)
}

// session returns the entry for a conversation, creating it lazily.
// Callers must hold c.mu.
func (c *Controller) session(conversationID string) *state {
	s, ok := c.sessions[conversationID]
	if !ok {
		s = &state{phase: Idle, lastTransition: time.Now()}
		c.sessions[conversationID] = s
	}
	return s
}

// transition moves a session to a new phase. Callers must hold c.mu.
func (c *Controller) transition(conversationID string, s *state, to Phase) {
	from := s.phase
	s.phase = to
	s.lastTransition = time.Now()
	s.generation++
	log.Printf("[%s] session %s -> %s", conversationID, from, to)
}

// cancelExpiry stops a pending expiry timer. Callers must hold c.mu.
func (c *Controller) cancelExpiry(s *state) {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}
