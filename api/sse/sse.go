package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/npcbrain/cache"
	mw "github.com/kasuganosora/npcbrain/middleware"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

// eventNames maps a pubsub channel to the SSE event type it is sent as.
var eventNames = map[string]string{
	cache.ChannelTransitions: "transition",
	cache.ChannelDeaths:      "death",
}

// Handler streams agent events to dashboards.
// Mount it behind middleware.Session with the stream scope.
type Handler struct {
	pubsub    cache.PubSub
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, keepalive: keepaliveInterval, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>[&agent_id=<id>].
// It relays transition and death events until the client goes away.
func (h *Handler) ServeSSE(c *gin.Context) {
	var only int64
	if s := c.Query("agent_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent_id"})
			return
		}
		only = v
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, cache.ChannelTransitions, cache.ChannelDeaths)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	operator := ""
	if cl := mw.GetClaims(c); cl != nil {
		operator = cl.Operator
	}
	h.logger.Info("sse client connected", zap.String("operator", operator), zap.Int64("agent_id", only))
	defer h.logger.Info("sse client gone", zap.String("operator", operator))

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			if only != 0 && agentOf(msg.Payload) != only {
				continue
			}
			name, ok := eventNames[msg.Channel]
			if !ok {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

func agentOf(payload string) int64 {
	var ev struct {
		AgentID int64 `json:"agent_id"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return 0
	}
	return ev.AgentID
}
