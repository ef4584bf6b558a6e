package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/poseidon/internal/bot"
	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/report"
	"github.com/tidewatch/poseidon/internal/session"
)

type fixedEngine struct {
	sample forecast.ForecastSample
}

func (e *fixedEngine) Reconcile(ctx context.Context, in forecast.ExtractionInput) forecast.ForecastSample {
	return e.sample
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := &fixedEngine{sample: forecast.ForecastSample{
		WaveHeightsM: []float64{1.2, 1.3},
		Provenance:   forecast.ProvenanceVision,
	}}
	sessions := session.NewController(time.Minute)
	handler := bot.NewHandler(sessions, engine, report.NewTextRenderer())

	router := gin.New()
	NewHandlers(handler).RegisterRoutes(router)
	return router
}

func postJSON(router *gin.Engine, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postImage(router *gin.Engine, conversationID, caption string, image []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("conversation_id", conversationID)
	mw.WriteField("caption", caption)
	if image != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="chart.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, _ := mw.CreatePart(header)
		part.Write(image)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTriggerEndpoint(t *testing.T) {
	router := newTestRouter()

	w := postJSON(router, "/api/v1/webhook/trigger", `{"conversation_id":"chat-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bot.ReplyActivated, decodeReply(t, w)["reply"])
}

func TestTriggerRequiresConversationID(t *testing.T) {
	router := newTestRouter()

	w := postJSON(router, "/api/v1/webhook/trigger", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageWithoutTriggerIsRefusedNotErrored(t *testing.T) {
	router := newTestRouter()

	w := postImage(router, "chat-1", "pipeline", []byte{0xFF, 0xD8})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeReply(t, w)
	assert.Equal(t, bot.ReplyNotActive, body["reply"])
	assert.Equal(t, true, body["refused"])
}

func TestImageRequiresConversationID(t *testing.T) {
	router := newTestRouter()

	w := postImage(router, "", "pipeline", []byte{0xFF})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookConversationFlow(t *testing.T) {
	router := newTestRouter()

	w := postJSON(router, "/api/v1/webhook/trigger", `{"conversation_id":"chat-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postImage(router, "chat-1", "pipeline 2025-09-01", []byte{0xFF, 0xD8})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeReply(t, w)
	require.NotContains(t, body, "refused")
	assert.Contains(t, body["reply"], "pipeline")

	w = postJSON(router, "/api/v1/webhook/text", `{"conversation_id":"chat-1","text":"cheers"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeReply(t, w)
	assert.Equal(t, true, body["acknowledged"])
	assert.Equal(t, bot.ReplyAcked, body["reply"])
}

func TestTextOutsideAcknowledgementWindow(t *testing.T) {
	router := newTestRouter()

	w := postJSON(router, "/api/v1/webhook/text", `{"conversation_id":"chat-1","text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeReply(t, w)["acknowledged"])
}
