// handlers.go - Webhook endpoints standing in for the messaging platform

package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidewatch/poseidon/internal/bot"
)

// maxImageBytes caps inbound chart uploads.
const maxImageBytes = 10 << 20

// Handlers adapts webhook requests onto the bot orchestrator.
type Handlers struct {
	bot *bot.Handler
}

func NewHandlers(b *bot.Handler) *Handlers {
	return &Handlers{bot: b}
}

// RegisterRoutes wires the webhook handlers into the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/webhook")
	v1.POST("/trigger", h.TriggerHandler)
	v1.POST("/image", h.ImageHandler)
	v1.POST("/text", h.TextHandler)
}

type conversationRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Text           string `json:"text"`
}

// TriggerHandler receives the trigger phrase for a conversation.
func (h *Handlers) TriggerHandler(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := h.bot.OnTrigger(req.ConversationID)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// ImageHandler receives a forecast chart with its caption.
func (h *Handlers) ImageHandler(c *gin.Context) {
	conversationID := c.PostForm("conversation_id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
		return
	}
	caption := c.PostForm("caption")

	var image []byte
	mimeType := "image/jpeg"
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
			return
		}
		defer f.Close()
		image, err = io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
			return
		}
		if ct := file.Header.Get("Content-Type"); ct != "" {
			mimeType = ct
		}
	}

	reply, err := h.bot.OnImage(c.Request.Context(), conversationID, image, mimeType, caption)
	if err != nil {
		// Session violations and unknown spots are fixed refusals, not
		// server errors.
		c.JSON(http.StatusOK, gin.H{"reply": reply, "refused": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// TextHandler receives free conversation text.
func (h *Handlers) TextHandler(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, acked := h.bot.OnText(req.ConversationID, req.Text)
	c.JSON(http.StatusOK, gin.H{"reply": reply, "acknowledged": acked})
}
