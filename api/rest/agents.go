package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/game/world"
	"go.uber.org/zap"
)

const cacheDeadline = 2 * time.Second

// AgentHandler serves read-only views of the simulated creatures.
type AgentHandler struct {
	arena  *world.Arena
	cache  cache.Cache
	logger *zap.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(arena *world.Arena, c cache.Cache, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{arena: arena, cache: c, logger: logger}
}

// Health reports liveness plus the arena counters.
// GET /health
func (h *AgentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "arena": h.arena.Stats()})
}

// List returns every creature's live snapshot.
// GET /api/agents
func (h *AgentHandler) List(c *gin.Context) {
	snaps := h.arena.Snapshots()
	c.JSON(http.StatusOK, gin.H{"agents": snaps, "count": len(snaps)})
}

// Get returns one creature's live snapshot.
// GET /api/agents/:id
func (h *AgentHandler) Get(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	snap, err := h.arena.Snapshot(id)
	if err != nil {
		respondAgentErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Cached returns what telemetry last wrote for a creature: the state hash
// and its recent events, newest first.
// GET /api/agents/:id/cached
func (h *AgentHandler) Cached(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheDeadline)
	defer cancel()

	state, err := h.cache.HGetAll(ctx, cache.AgentKey(id))
	if err != nil {
		h.logger.Error("cached agent read failed", zap.Int64("agent_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	if len(state) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing cached for agent"})
		return
	}
	raw, err := h.cache.LRange(ctx, cache.AgentRecentKey(id), 0, -1)
	if err != nil {
		h.logger.Warn("cached recent read failed", zap.Int64("agent_id", id), zap.Error(err))
	}
	recent := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		if json.Valid([]byte(r)) {
			recent = append(recent, json.RawMessage(r))
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "state": state, "recent": recent})
}

// agentID parses the :id path parameter, answering 400 when it is bad.
func agentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return 0, false
	}
	return id, true
}

func respondAgentErr(c *gin.Context, err error) {
	if errors.Is(err, world.ErrAgentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
