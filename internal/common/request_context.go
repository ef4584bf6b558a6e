// request_context.go - Request tracking and logging

package common

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// RequestContext tracks one inbound message's lifecycle for logging.
type RequestContext struct {
	RequestID      string
	ConversationID string
	StartTime      time.Time
}

// NewRequestContext creates a tracking context for a conversation event.
func NewRequestContext(conversationID string) *RequestContext {
	rc := &RequestContext{
		RequestID:      uuid.New().String(),
		ConversationID: conversationID,
		StartTime:      time.Now(),
	}
	rc.LogInfo("request started")
	return rc
}

// Elapsed returns the time since the request started.
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	log.Printf("[%s] %s", rc.RequestID, fmt.Sprintf(format, args...))
}

func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	log.Printf("[%s] ⚠️  %s", rc.RequestID, fmt.Sprintf(format, args...))
}

func (rc *RequestContext) LogError(format string, args ...interface{}) {
	log.Printf("[%s] ❌ %s", rc.RequestID, fmt.Sprintf(format, args...))
}
