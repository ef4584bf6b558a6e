// handler.go - Conversation orchestration: sessions, reconciliation, delivery

package bot

import (
	"context"
	"errors"
	"time"

	"github.com/tidewatch/poseidon/internal/common"
	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/report"
	"github.com/tidewatch/poseidon/internal/session"
	"github.com/tidewatch/poseidon/internal/storage"
)

// Fixed user-facing responses. The transport layer sends these verbatim.
const (
	ReplyActivated   = "Session active. Send a forecast chart with a caption like: pipeline 2025-09-01"
	ReplyNotActive   = "Not expecting an image right now. Send the trigger phrase first."
	ReplyBusy        = "Still working on the previous chart. Hold on."
	ReplyUnknownSpot = "Spot not recognized. Known spots: see the spot table."
	ReplyAcked       = "Noted. Session closed."
)

// Reconciler is the engine contract the handler depends on; it never
// fails and never returns an error.
type Reconciler interface {
	Reconcile(ctx context.Context, in forecast.ExtractionInput) forecast.ForecastSample
}

// Handler wires the transport events to the session controller and the
// reconciliation engine.
type Handler struct {
	sessions *session.Controller
	engine   Reconciler
	renderer report.Consumer
	now      func() time.Time
}

// NewHandler creates the orchestration handler.
func NewHandler(sessions *session.Controller, engine Reconciler, renderer report.Consumer) *Handler {
	return &Handler{
		sessions: sessions,
		engine:   engine,
		renderer: renderer,
		now:      time.Now,
	}
}

// OnTrigger handles the trigger phrase: Idle becomes Active, repeated
// triggers while Active change nothing.
func (h *Handler) OnTrigger(conversationID string) string {
	rc := common.NewRequestContext(conversationID)
	phase := h.sessions.Trigger(conversationID)
	rc.LogInfo("trigger received, session %s", phase)
	return ReplyActivated
}

// OnImage handles an inbound chart image. Outside the Active phase the
// image is refused with a fixed response and no transition; a second
// image while one is processing gets the busy refusal. On success the
// rendered report is returned and the session awaits acknowledgement.
func (h *Handler) OnImage(ctx context.Context, conversationID string, image []byte, mimeType, caption string) (string, error) {
	rc := common.NewRequestContext(conversationID)

	if err := h.sessions.BeginReconciliation(conversationID); err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			rc.LogWarning("image refused: reconciliation in flight")
			return ReplyBusy, err
		default:
			rc.LogWarning("image refused: session not active")
			return ReplyNotActive, err
		}
	}

	spotName, date := ParseCaption(caption, h.now())
	coords, known := LookupSpot(spotName)
	if !known {
		h.sessions.AbortReconciliation(conversationID)
		rc.LogWarning("unknown spot %q", spotName)
		return ReplyUnknownSpot, ErrUnknownSpot
	}

	in := forecast.ExtractionInput{
		Image:    image,
		MIMEType: mimeType,
		Coords:   &coords,
		Date:     date,
	}

	sample := h.engine.Reconcile(ctx, in)
	rc.LogInfo("reconciled %s for %s (provenance: %s) in %s", spotName, date.Format("2006-01-02"), sample.Provenance, rc.Elapsed())

	text := h.renderer.Present(sample, spotName, date)

	if err := storage.SaveDeliveredReport(ctx, storage.DeliveredReport{
		RequestID:      rc.RequestID,
		ConversationID: conversationID,
		SpotName:       spotName,
		Date:           date.Format("2006-01-02"),
		Sample:         sample,
		DeliveredAt:    h.now(),
	}); err != nil {
		// Archival is best effort; the report was already produced.
		rc.LogWarning("archive failed: %v", err)
	}

	h.sessions.CompleteReconciliation(conversationID)
	return text, nil
}

// OnText handles free text: while awaiting acknowledgement any text
// closes the session; in every other phase it is ignored.
func (h *Handler) OnText(conversationID string, text string) (string, bool) {
	if h.sessions.Acknowledge(conversationID) {
		return ReplyAcked, true
	}
	return "", false
}

// ErrUnknownSpot is surfaced to the transport as the fixed refusal; no
// reconciliation is attempted.
var ErrUnknownSpot = errors.New("spot not recognized")
