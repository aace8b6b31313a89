package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/npcbrain/api/rest"
	"github.com/kasuganosora/npcbrain/audit"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/config"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/game/nav"
	"github.com/kasuganosora/npcbrain/game/world"
	mw "github.com/kasuganosora/npcbrain/middleware"
	"github.com/kasuganosora/npcbrain/model"
	"github.com/kasuganosora/npcbrain/scheduler"
	"github.com/kasuganosora/npcbrain/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testKey = "secret"

var testSec = config.SecurityConfig{JWTSecret: "rest-test-secret", JWTTTLH: time.Hour}

func init() {
	gin.SetMode(gin.TestMode)
}

func deer() config.Species {
	return config.Species{
		Name:         "deer",
		HP:           100,
		Armor:        20,
		Stamina:      50,
		WoundedRatio: 0.3,
		Faction:      1,
		Params:       ai.DefaultParameters(),
		Spawns:       []config.SpawnPoint{{X: 2.5, Z: 2.5, Count: 2}},
	}
}

type rig struct {
	r       *gin.Engine
	db      *gorm.DB
	arena   *world.Arena
	spawner *world.Spawner
	tel     *world.Telemetry
	cache   cache.Cache
	sched   *scheduler.Scheduler
}

// newRig builds the REST surface over an arena holding two deer, ids 1
// and 2. The arena loop is not started; tests tick it by hand.
func newRig(t *testing.T, adminKey string) *rig {
	t.Helper()
	log := zap.NewNop()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	au := audit.New(db, log)
	tel := world.NewTelemetry(c, ps, au, log)
	arena := world.NewArena(world.ArenaConfig{Grid: nav.NewGrid(16, 16), Observer: tel}, log)
	tel.Attach(arena)
	sched := scheduler.New(log)
	sp := world.NewSpawner(arena, sched, &config.Bestiary{Species: []config.Species{deer()}}, log)
	sp.SpawnAll()
	t.Cleanup(func() {
		sched.Stop()
		tel.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		au.Stop(ctx)
	})

	agents := rest.NewAgentHandler(arena, c, log)
	admin := rest.NewAdminHandler(rest.AdminDeps{
		Arena:     arena,
		Spawner:   sp,
		Telemetry: tel,
		Audit:     au,
		Cache:     c,
		Scheduler: sched,
		Security:  testSec,
	}, log)

	r := gin.New()
	r.Use(mw.TraceID())
	r.GET("/health", agents.Health)
	api := r.Group("/api")
	api.GET("/agents", agents.List)
	api.GET("/agents/:id", agents.Get)
	api.GET("/agents/:id/cached", agents.Cached)

	adm := api.Group("/admin", mw.AdminAuth(adminKey))
	adm.GET("/metrics", admin.Metrics)
	adm.POST("/agents/:id/damage", admin.Damage)
	adm.POST("/agents/:id/sleep", admin.Sleep)
	adm.GET("/transitions", admin.Transitions)
	adm.POST("/token", admin.IssueToken)
	adm.DELETE("/token", admin.RevokeToken)
	adm.GET("/scheduler", admin.ListSchedulerTasks)
	adm.POST("/respawn", admin.Respawn)

	return &rig{r: r, db: db, arena: arena, spawner: sp, tel: tel, cache: c, sched: sched}
}

func (rg *rig) do(method, path, key, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set(mw.AdminKeyHeader, key)
	}
	w := httptest.NewRecorder()
	rg.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// ---- AdminAuth ----

func TestAdminAuth_NoKey_Disabled(t *testing.T) {
	rg := newRig(t, "")
	w := rg.do(http.MethodGet, "/api/admin/metrics", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_WrongKey(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodGet, "/api/admin/metrics", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---- Metrics ----

func TestMetrics(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodGet, "/api/admin/metrics", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Arena            world.ArenaStats `json:"arena"`
		Population       int              `json:"population"`
		TelemetryDropped uint64           `json:"telemetry_dropped"`
		AuditDropped     uint64           `json:"audit_dropped"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Arena.Creatures)
	assert.Equal(t, 2, body.Arena.Alive)
	assert.Equal(t, 2, body.Population)
	assert.Zero(t, body.TelemetryDropped)
	assert.Zero(t, body.AuditDropped)
}

// ---- Damage ----

func TestDamage_AppliesArmorFirst(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/1/damage", testKey, `{"amount":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap world.AgentSnapshot
	decode(t, w, &snap)
	assert.Equal(t, int64(1), snap.ID)
	assert.InDelta(t, 0, snap.Armor, 1e-9)
	assert.InDelta(t, 90, snap.HP, 1e-9)
}

func TestDamage_MagicIgnoresArmor(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/1/damage", testKey, `{"kind":"magic","amount":30}`)
	require.Equal(t, http.StatusOK, w.Code)

	var snap world.AgentSnapshot
	decode(t, w, &snap)
	assert.InDelta(t, 20, snap.Armor, 1e-9)
	assert.InDelta(t, 70, snap.HP, 1e-9)
}

func TestDamage_AttackerProvokes(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/1/damage", testKey, `{"kind":"bite","amount":5,"attacker_id":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var snap world.AgentSnapshot
	decode(t, w, &snap)
	assert.Equal(t, int64(2), snap.TargetID)
}

func TestDamage_BadRequests(t *testing.T) {
	rg := newRig(t, testKey)
	tests := []struct {
		name, path, body string
		want             int
	}{
		{"bad id", "/api/admin/agents/abc/damage", `{"amount":5}`, http.StatusBadRequest},
		{"zero id", "/api/admin/agents/0/damage", `{"amount":5}`, http.StatusBadRequest},
		{"no amount", "/api/admin/agents/1/damage", `{}`, http.StatusBadRequest},
		{"negative amount", "/api/admin/agents/1/damage", `{"amount":-1}`, http.StatusBadRequest},
		{"unknown kind", "/api/admin/agents/1/damage", `{"kind":"fire","amount":5}`, http.StatusBadRequest},
		{"unknown agent", "/api/admin/agents/99/damage", `{"amount":5}`, http.StatusNotFound},
		{"unknown attacker", "/api/admin/agents/1/damage", `{"amount":5,"attacker_id":99}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := rg.do(http.MethodPost, tc.path, testKey, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestDamage_LethalHitReachesCache(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/1/damage", testKey, `{"kind":"magic","amount":500}`)
	require.Equal(t, http.StatusOK, w.Code)
	rg.arena.Tick(0.05)

	// The death event reaches the cache through the telemetry worker.
	assert.Eventually(t, func() bool {
		w := rg.do(http.MethodGet, "/api/agents/1/cached", "", "")
		if w.Code != http.StatusOK {
			return false
		}
		var body struct {
			State map[string]string `json:"state"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return body.State["dead"] == "true"
	}, 3*time.Second, 20*time.Millisecond)
}

// ---- Sleep ----

func TestSleep(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/2/sleep", testKey, `{"asleep":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var snap world.AgentSnapshot
	decode(t, w, &snap)
	assert.True(t, snap.Asleep)

	rg.arena.Tick(0.05)
	snap, err := rg.arena.Snapshot(2)
	require.NoError(t, err)
	assert.Equal(t, "Asleep", snap.Node)

	w = rg.do(http.MethodPost, "/api/admin/agents/2/sleep", testKey, `{"asleep":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &snap)
	assert.False(t, snap.Asleep)
}

func TestSleep_RequiresFlag(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/agents/2/sleep", testKey, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = rg.do(http.MethodPost, "/api/admin/agents/42/sleep", testKey, `{"asleep":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---- Transitions ----

func seedLogs(t *testing.T, db *gorm.DB) {
	t.Helper()
	for i := 0; i < 5; i++ {
		agent := int64(1 + i%2)
		require.NoError(t, db.Create(&model.TransitionLog{
			TraceID:  fmt.Sprintf("trace-%d", i),
			AgentID:  agent,
			Species:  "deer",
			Event:    model.EventTransition,
			FromNode: "Idle",
			ToNode:   "Moving",
			Status:   "Success",
			SimTime:  float64(i),
		}).Error)
	}
}

func TestTransitions(t *testing.T) {
	rg := newRig(t, testKey)
	seedLogs(t, rg.db)

	var body struct {
		Transitions []model.TransitionLog `json:"transitions"`
		Count       int                   `json:"count"`
	}
	w := rg.do(http.MethodGet, "/api/admin/transitions", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, "trace-4", body.Transitions[0].TraceID, "newest first")

	w = rg.do(http.MethodGet, "/api/admin/transitions?agent_id=2", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, 2, body.Count)
	for _, l := range body.Transitions {
		assert.Equal(t, int64(2), l.AgentID)
	}

	w = rg.do(http.MethodGet, "/api/admin/transitions?limit=3", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, 3, body.Count)
}

func TestTransitions_ByNode(t *testing.T) {
	rg := newRig(t, testKey)
	seedLogs(t, rg.db)
	require.NoError(t, rg.db.Create(&model.TransitionLog{
		TraceID: "trace-alert", AgentID: 1, Event: model.EventTransition,
		FromNode: "Idle", ToNode: "Alert", Status: "Failure",
	}).Error)

	var body struct {
		Transitions []model.TransitionLog `json:"transitions"`
		Count       int                   `json:"count"`
	}
	// Node names match case-insensitively.
	w := rg.do(http.MethodGet, "/api/admin/transitions?node=alert", testKey, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "trace-alert", body.Transitions[0].TraceID)

	w = rg.do(http.MethodGet, "/api/admin/transitions?node=None", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Zero(t, body.Count)
}

func TestTransitions_BadQuery(t *testing.T) {
	rg := newRig(t, testKey)
	for _, q := range []string{"agent_id=x", "agent_id=-1", "limit=0", "limit=many", "node=Dance"} {
		w := rg.do(http.MethodGet, "/api/admin/transitions?"+q, testKey, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

// ---- Tokens ----

func TestIssueToken_RegistersSession(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/token", testKey, `{"operator":"ops"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
		Scope string `json:"scope"`
	}
	decode(t, w, &body)
	assert.Equal(t, mw.ScopeStream, body.Scope)

	claims, err := mw.ParseToken(body.Token, testSec.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)

	ok, err := rg.cache.Exists(context.Background(), cache.SessionKey(body.Token))
	require.NoError(t, err)
	assert.True(t, ok)

	w = rg.do(http.MethodDelete, "/api/admin/token", testKey, `{"token":"`+body.Token+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ok, err = rg.cache.Exists(context.Background(), cache.SessionKey(body.Token))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssueToken_Rejects(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/token", testKey, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = rg.do(http.MethodPost, "/api/admin/token", testKey, `{"operator":"ops","scope":"root"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---- Scheduler ----

func TestListSchedulerTasks(t *testing.T) {
	rg := newRig(t, testKey)
	rg.sched.AddTicker("respawn_check", time.Hour, func() {})

	w := rg.do(http.MethodGet, "/api/admin/scheduler", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Tasks []scheduler.TaskInfo `json:"tasks"`
	}
	decode(t, w, &body)
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "respawn_check", body.Tasks[0].Name)
}

// ---- Respawn ----

func TestRespawn(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodPost, "/api/admin/respawn", testKey, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Population int `json:"population"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Population, "full slots are not topped up twice")
	assert.Len(t, rg.arena.Snapshots(), 2)
}
