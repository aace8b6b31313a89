package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/npcbrain/audit"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/config"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/game/world"
	mw "github.com/kasuganosora/npcbrain/middleware"
	"github.com/kasuganosora/npcbrain/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by middleware.AdminAuth.
type AdminHandler struct {
	arena   *world.Arena
	spawner *world.Spawner
	tel     *world.Telemetry
	audit   *audit.Service
	cache   cache.Cache
	sched   *scheduler.Scheduler
	sec     config.SecurityConfig
	logger  *zap.Logger
}

// AdminDeps groups what the admin endpoints reach into. Spawner and
// Telemetry may be nil; their counters are then left out of Metrics.
type AdminDeps struct {
	Arena     *world.Arena
	Spawner   *world.Spawner
	Telemetry *world.Telemetry
	Audit     *audit.Service
	Cache     cache.Cache
	Scheduler *scheduler.Scheduler
	Security  config.SecurityConfig
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(d AdminDeps, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		arena:   d.Arena,
		spawner: d.Spawner,
		tel:     d.Telemetry,
		audit:   d.Audit,
		cache:   d.Cache,
		sched:   d.Scheduler,
		sec:     d.Security,
		logger:  logger,
	}
}

// Metrics returns simulation and pipeline counters.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	out := gin.H{
		"arena":           h.arena.Stats(),
		"audit_dropped":   h.audit.Dropped(),
		"scheduler_tasks": h.sched.ListTickers(),
	}
	if h.spawner != nil {
		out["population"] = h.spawner.Population()
	}
	if h.tel != nil {
		out["telemetry_dropped"] = h.tel.Dropped()
	}
	c.JSON(http.StatusOK, out)
}

type damageRequest struct {
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	AttackerID int64   `json:"attacker_id"`
}

// Damage lands a hit on a creature. A known attacker provokes it.
// POST /api/admin/agents/:id/damage
func (h *AdminHandler) Damage(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	var req damageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := ai.ParseDamageKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown damage kind " + strconv.Quote(req.Kind)})
		return
	}
	if err := h.arena.Damage(id, kind, req.Amount, req.AttackerID); err != nil {
		respondAgentErr(c, err)
		return
	}
	h.logger.Info("admin damage",
		zap.String("trace_id", mw.GetTraceID(c)),
		zap.Int64("agent_id", id),
		zap.String("kind", kind.String()),
		zap.Float64("amount", req.Amount),
		zap.Int64("attacker_id", req.AttackerID))
	h.respondSnapshot(c, id)
}

type sleepRequest struct {
	Asleep *bool `json:"asleep" binding:"required"`
}

// Sleep puts a creature to sleep or wakes it.
// POST /api/admin/agents/:id/sleep
func (h *AdminHandler) Sleep(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	var req sleepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.arena.SetAsleep(id, *req.Asleep); err != nil {
		respondAgentErr(c, err)
		return
	}
	h.logger.Info("admin sleep",
		zap.String("trace_id", mw.GetTraceID(c)),
		zap.Int64("agent_id", id),
		zap.Bool("asleep", *req.Asleep))
	h.respondSnapshot(c, id)
}

func (h *AdminHandler) respondSnapshot(c *gin.Context, id int64) {
	snap, err := h.arena.Snapshot(id)
	if err != nil {
		respondAgentErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Transitions returns audited transitions, newest first.
// GET /api/admin/transitions?agent_id=&limit=&node=
func (h *AdminHandler) Transitions(c *gin.Context) {
	var agent int64
	if s := c.Query("agent_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent_id"})
			return
		}
		agent = v
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = v
	}
	var to string
	if s := c.Query("node"); s != "" {
		b := ai.ParseBehavior(s)
		if b == ai.BehaviorNone && !strings.EqualFold(s, ai.BehaviorNone.String()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown node"})
			return
		}
		to = b.String()
	}
	logs, err := h.audit.Recent(c.Request.Context(), audit.Query{AgentID: agent, To: to, Limit: limit})
	if err != nil {
		h.logger.Error("transition query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": logs, "count": len(logs)})
}

type tokenRequest struct {
	Operator string `json:"operator" binding:"required,min=1,max=64"`
	Scope    string `json:"scope"`
}

// IssueToken signs a session token and registers it in the cache.
// POST /api/admin/token
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Scope {
	case "":
		req.Scope = mw.ScopeStream
	case mw.ScopeStream, mw.ScopeAdmin:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope " + strconv.Quote(req.Scope)})
		return
	}

	ttl := h.sec.JWTTTLH
	tok, err := mw.GenerateToken(req.Operator, req.Scope, h.sec.JWTSecret, ttl)
	if err != nil {
		h.logger.Error("token signing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token signing failed"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheDeadline)
	defer cancel()
	if err := h.cache.Set(ctx, cache.SessionKey(tok), req.Operator, ttl); err != nil {
		h.logger.Error("session store failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store failed"})
		return
	}
	h.logger.Info("session issued",
		zap.String("operator", req.Operator),
		zap.String("scope", req.Scope))
	c.JSON(http.StatusOK, gin.H{
		"token":      tok,
		"scope":      req.Scope,
		"expires_at": time.Now().Add(ttl).UTC(),
	})
}

type revokeRequest struct {
	Token string `json:"token" binding:"required"`
}

// RevokeToken ends a session before its expiry.
// DELETE /api/admin/token
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheDeadline)
	defer cancel()
	if err := h.cache.Del(ctx, cache.SessionKey(req.Token)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session revoke failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "revoked"})
}

// ListSchedulerTasks returns every scheduled task with its counters.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// Respawn tops up every spawn point now instead of waiting for the task.
// POST /api/admin/respawn
func (h *AdminHandler) Respawn(c *gin.Context) {
	if h.spawner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no spawner"})
		return
	}
	h.spawner.CheckRespawns()
	c.JSON(http.StatusOK, gin.H{"population": h.spawner.Population()})
}
