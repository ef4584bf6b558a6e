package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/report"
	"github.com/tidewatch/poseidon/internal/session"
)

// stubEngine returns a fixed sample, optionally blocking until released.
type stubEngine struct {
	sample forecast.ForecastSample
	block  chan struct{}
	mu     sync.Mutex
	calls  int
}

func (s *stubEngine) Reconcile(ctx context.Context, in forecast.ExtractionInput) forecast.ForecastSample {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.sample
}

func newTestHandler(engine Reconciler) (*Handler, *session.Controller) {
	sessions := session.NewController(time.Minute)
	h := NewHandler(sessions, engine, report.NewTextRenderer())
	return h, sessions
}

func TestImageRefusedWhenIdle(t *testing.T) {
	h, sessions := newTestHandler(&stubEngine{})

	reply, err := h.OnImage(context.Background(), "chat-1", nil, "image/jpeg", "pipeline")
	assert.ErrorIs(t, err, session.ErrNotActive)
	assert.Equal(t, ReplyNotActive, reply)
	assert.Equal(t, session.Idle, sessions.Phase("chat-1"))
}

func TestUnknownSpotRefusedWithoutReconciliation(t *testing.T) {
	engine := &stubEngine{}
	h, sessions := newTestHandler(engine)

	h.OnTrigger("chat-1")
	reply, err := h.OnImage(context.Background(), "chat-1", nil, "image/jpeg", "atlantis 2025-09-01")

	assert.ErrorIs(t, err, ErrUnknownSpot)
	assert.Equal(t, ReplyUnknownSpot, reply)
	assert.Equal(t, 0, engine.calls, "no reconciliation for an unknown spot")

	// The failed lookup must not leave the session stuck busy.
	assert.Equal(t, session.Active, sessions.Phase("chat-1"))
	require.NoError(t, sessions.BeginReconciliation("chat-1"))
}

func TestFullConversationFlow(t *testing.T) {
	engine := &stubEngine{sample: forecast.ForecastSample{
		WaveHeightsM: []float64{1.2, 1.3},
		WavePeriodsS: []float64{9.0, 9.5},
		Provenance:   forecast.ProvenanceMerged,
	}}
	h, sessions := newTestHandler(engine)

	assert.Equal(t, ReplyActivated, h.OnTrigger("chat-1"))

	reply, err := h.OnImage(context.Background(), "chat-1", []byte{0xFF}, "image/jpeg", "pipeline 2025-09-01")
	require.NoError(t, err)
	assert.True(t, strings.Contains(reply, "pipeline"), "report names the spot")
	assert.True(t, strings.Contains(reply, "1.2"), "report carries the reconciled numbers")
	assert.Equal(t, session.AwaitingAcknowledgement, sessions.Phase("chat-1"))

	ack, acked := h.OnText("chat-1", "thanks")
	assert.True(t, acked)
	assert.Equal(t, ReplyAcked, ack)
	assert.Equal(t, session.Idle, sessions.Phase("chat-1"))
}

func TestSecondImageWhileBusyGetsBusyReply(t *testing.T) {
	engine := &stubEngine{block: make(chan struct{})}
	h, _ := newTestHandler(engine)

	h.OnTrigger("chat-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.OnImage(context.Background(), "chat-1", nil, "image/jpeg", "pipeline")
	}()

	// Wait for the first image to claim the busy slot.
	require.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return engine.calls == 1
	}, time.Second, 5*time.Millisecond)

	reply, err := h.OnImage(context.Background(), "chat-1", nil, "image/jpeg", "pipeline")
	assert.ErrorIs(t, err, session.ErrBusy)
	assert.Equal(t, ReplyBusy, reply)

	close(engine.block)
	<-done
}

func TestTextIgnoredWhenNotAwaiting(t *testing.T) {
	h, _ := newTestHandler(&stubEngine{})

	reply, acked := h.OnText("chat-1", "hello?")
	assert.False(t, acked)
	assert.Empty(t, reply)
}
