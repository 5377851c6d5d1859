package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aman-churiwal/assistant-gateway/internal/audit"
	"github.com/aman-churiwal/assistant-gateway/internal/chat"
	"github.com/aman-churiwal/assistant-gateway/internal/intent"
	"github.com/aman-churiwal/assistant-gateway/internal/middleware"
	"github.com/aman-churiwal/assistant-gateway/internal/models"
	"github.com/aman-churiwal/assistant-gateway/internal/usage"
)

// ChatHandler serves the conversational surface. Every message passes
// through the usage governor before it touches a conversation.
type ChatHandler struct {
	governor *usage.Governor
	router   *intent.Router
	audit    *audit.Logger
}

func NewChatHandler(governor *usage.Governor, router *intent.Router, auditLogger *audit.Logger) *ChatHandler {
	return &ChatHandler{
		governor: governor,
		router:   router,
		audit:    auditLogger,
	}
}

// Index renders the chat page. The session middleware has already ensured
// session defaults exist.
func (h *ChatHandler) Index(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	c.HTML(http.StatusOK, "site.html", gin.H{
		"sessionID": sess.ID,
		"history":   sess.History(),
	})
}

func (h *ChatHandler) NewChat(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	sess.StartNewConversation()
	c.JSON(http.StatusOK, gin.H{"message": "New chat started."})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	text := c.PostForm("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field 'text' is required"})
		return
	}

	// Tier is per-session: a tier field updates the stored selection,
	// later messages reuse it.
	if tier := c.PostForm("tier"); tier != "" {
		sess.SetTier(tier)
	}

	key := usage.TrackingKey{
		Identity: sess.ID,
		Tier:     sess.Tier(),
		Model:    c.PostForm("model"),
	}

	now := time.Now()
	tokens := usage.EstimateTokens(text)

	err := h.governor.CheckAndRecord(c.Request.Context(), key, tokens, now)
	h.logDecision(key, tokens, now, err)
	if err != nil {
		h.rejectMessage(c, err)
		return
	}

	sess.AppendMessage(chat.RoleUser, text)
	response := h.router.Respond(text, now)
	sess.AppendMessage(chat.RoleAssistant, response)

	c.JSON(http.StatusOK, gin.H{"response": response})
}

// rejectMessage maps governor errors onto HTTP statuses: misconfigured
// caller input (unknown tier) is 400, broken server policy is 500, quota
// rejections are 429 with the dimension-specific message.
func (h *ChatHandler) rejectMessage(c *gin.Context, err error) {
	var notFound *usage.PolicyNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": notFound.Error(),
			"tier":  notFound.Tier,
		})
		return
	}

	var incomplete *usage.PolicyIncompleteError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": incomplete.Error(),
			"field": incomplete.Field,
		})
		return
	}

	var quota *usage.QuotaError
	if errors.As(err, &quota) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     quota.Error(),
			"dimension": quota.Dimension,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage check failed"})
}

func (h *ChatHandler) logDecision(key usage.TrackingKey, tokens int64, now time.Time, err error) {
	if h.audit == nil {
		return
	}

	rec := models.UsageRecord{
		Timestamp: now,
		SessionID: key.Identity,
		Tier:      key.Tier,
		Provider:  key.Provider,
		Model:     key.Model,
		Tokens:    tokens,
		Admitted:  err == nil,
	}
	var quota *usage.QuotaError
	if errors.As(err, &quota) {
		rec.Dimension = quota.Dimension
	}
	h.audit.Record(rec)
}

func (h *ChatHandler) SwitchConversation(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	index, err := strconv.Atoi(c.PostForm("conversationIndex"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field 'conversationIndex' must be an integer"})
		return
	}

	history, err := sess.SwitchActive(index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Switched successfully.",
		"chat_history": history,
	})
}

func (h *ChatHandler) GetPreviousChats(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{"previous_chats": sess.PreviousChats()})
}

func (h *ChatHandler) Reset(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	sess.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared"})
}
