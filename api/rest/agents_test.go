package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/game/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	rg := newRig(t, testKey)
	rg.arena.Tick(0.05)

	w := rg.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string           `json:"status"`
		Arena  world.ArenaStats `json:"arena"`
	}
	decode(t, w, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, uint64(1), body.Arena.Ticks)
	assert.Equal(t, 2, body.Arena.Creatures)
}

func TestListAgents(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodGet, "/api/agents", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Agents []world.AgentSnapshot `json:"agents"`
		Count  int                   `json:"count"`
	}
	decode(t, w, &body)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, int64(1), body.Agents[0].ID)
	assert.Equal(t, int64(2), body.Agents[1].ID)
	for _, a := range body.Agents {
		assert.Equal(t, "deer", a.Species)
		assert.Equal(t, "Idle", a.Node)
		assert.InDelta(t, 100, a.HP, 1e-9)
	}
}

func TestGetAgent(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodGet, "/api/agents/2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap world.AgentSnapshot
	decode(t, w, &snap)
	assert.Equal(t, int64(2), snap.ID)
	assert.False(t, snap.Dead)

	assert.Equal(t, http.StatusNotFound, rg.do(http.MethodGet, "/api/agents/77", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, rg.do(http.MethodGet, "/api/agents/two", "", "").Code)
}

func TestCachedAgent_NothingYet(t *testing.T) {
	rg := newRig(t, testKey)
	w := rg.do(http.MethodGet, "/api/agents/1/cached", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCachedAgent_AfterTransition(t *testing.T) {
	rg := newRig(t, testKey)
	rg.tel.OnTransition(ai.Transition{
		AgentID:  1,
		Agent:    "deer",
		From:     ai.BehaviorIdle,
		To:       ai.BehaviorAlert,
		Status:   ai.StatusSuccess,
		TargetID: 2,
	})

	var body struct {
		ID     int64             `json:"id"`
		State  map[string]string `json:"state"`
		Recent []world.Event     `json:"recent"`
	}
	require.Eventually(t, func() bool {
		w := rg.do(http.MethodGet, "/api/agents/1/cached", "", "")
		if w.Code != http.StatusOK {
			return false
		}
		// The hash lands before the history list.
		return json.Unmarshal(w.Body.Bytes(), &body) == nil && len(body.Recent) > 0
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, int64(1), body.ID)
	assert.Equal(t, "Alert", body.State["node"])
	assert.Equal(t, "Idle", body.State["from"])
	assert.Equal(t, "2", body.State["target"])
	require.Len(t, body.Recent, 1)
	assert.Equal(t, "Alert", body.Recent[0].To)
	assert.NotEmpty(t, body.Recent[0].TraceID)
}
