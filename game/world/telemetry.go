package world

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/npcbrain/audit"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/model"
	"go.uber.org/zap"
)

const (
	telemetryQueue = 1024
	// recentLen is how many events the per-agent history list keeps.
	recentLen = 20
	// agentKeyTTL lets the hashes of removed agents age out.
	agentKeyTTL   = 5 * time.Minute
	cacheDeadline = 2 * time.Second
)

// Event is one agent event as published on the transition channels and
// kept in the per-agent history list.
type Event struct {
	TraceID  string    `json:"trace_id"`
	Kind     string    `json:"kind"`
	AgentID  int64     `json:"agent_id"`
	Species  string    `json:"species"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Status   string    `json:"status,omitempty"`
	TargetID int64     `json:"target_id,omitempty"`
	At       time.Time `json:"at"`
}

// snapshotSource is the part of an Arena telemetry reads from its worker.
type snapshotSource interface {
	Snapshot(id int64) (AgentSnapshot, error)
	Snapshots() []AgentSnapshot
	Stats() ArenaStats
}

// Telemetry is the arena's ai.Observer. Trees call it with the arena lock
// held, so it only queues; a worker goroutine writes the agent hash to the
// cache, publishes the event and hands it to the audit log.
type Telemetry struct {
	cache  cache.Cache
	pubsub cache.PubSub
	audit  *audit.Service
	logger *zap.Logger

	mu      sync.Mutex
	source  snapshotSource
	dropped uint64

	ch       chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTelemetry creates a Telemetry and starts its worker. Any of c, ps and
// au may be nil to skip that sink.
func NewTelemetry(c cache.Cache, ps cache.PubSub, au *audit.Service, logger *zap.Logger) *Telemetry {
	t := &Telemetry{
		cache:  c,
		pubsub: ps,
		audit:  au,
		logger: logger,
		ch:     make(chan Event, telemetryQueue),
		stopCh: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.worker()
	return t
}

// Attach connects the arena whose creatures are being observed and
// subscribes to their deaths.
func (t *Telemetry) Attach(a *Arena) {
	t.mu.Lock()
	t.source = a
	t.mu.Unlock()
	a.OnDeath(t.OnDeath)
}

// OnTransition implements ai.Observer.
func (t *Telemetry) OnTransition(tr ai.Transition) {
	t.enqueue(Event{
		Kind:     model.EventTransition,
		AgentID:  tr.AgentID,
		Species:  tr.Agent,
		From:     tr.From.String(),
		To:       tr.To.String(),
		Status:   tr.Status.String(),
		TargetID: tr.TargetID,
	})
}

// OnDeath records a creature's death. The arena calls it outside its lock.
func (t *Telemetry) OnDeath(c *Creature) {
	t.enqueue(Event{Kind: model.EventDeath, AgentID: c.ID(), Species: c.Species()})
}

func (t *Telemetry) enqueue(ev Event) {
	ev.TraceID = uuid.New().String()
	ev.At = time.Now()
	select {
	case t.ch <- ev:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
		t.logger.Warn("telemetry queue full, dropping event",
			zap.Int64("agent_id", ev.AgentID),
			zap.String("kind", ev.Kind))
	}
}

// Dropped reports how many events were discarded.
func (t *Telemetry) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Close drains the queue and stops the worker.
func (t *Telemetry) Close() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

func (t *Telemetry) worker() {
	defer t.wg.Done()
	for {
		select {
		case ev := <-t.ch:
			t.deliver(ev)
		case <-t.stopCh:
			for {
				select {
				case ev := <-t.ch:
					t.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (t *Telemetry) currentSource() snapshotSource {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source
}

func (t *Telemetry) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheDeadline)
	defer cancel()
	log := t.logger.With(zap.String("trace_id", ev.TraceID), zap.Int64("agent_id", ev.AgentID))

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("telemetry event not serialisable", zap.Error(err))
		return
	}
	var (
		snap    AgentSnapshot
		hasSnap bool
		simTime float64
	)
	if src := t.currentSource(); src != nil {
		snap, err = src.Snapshot(ev.AgentID)
		hasSnap = err == nil
		simTime = src.Stats().SimTime
	}

	if t.cache != nil {
		fields := map[string]string{
			"updated_at": ev.At.Format(time.RFC3339Nano),
			"trace_id":   ev.TraceID,
		}
		switch ev.Kind {
		case model.EventTransition:
			fields["node"] = ev.To
			fields["from"] = ev.From
			fields["status"] = ev.Status
			fields["target"] = strconv.FormatInt(ev.TargetID, 10)
		case model.EventDeath:
			fields["dead"] = "true"
		}
		if hasSnap {
			addSnapshotFields(fields, snap)
		}
		if err := t.writeAgent(ctx, ev.AgentID, fields, string(payload)); err != nil {
			log.Warn("telemetry cache write failed", zap.Error(err))
		}
	}

	if t.pubsub != nil {
		channel := cache.ChannelTransitions
		if ev.Kind == model.EventDeath {
			channel = cache.ChannelDeaths
		}
		if err := t.pubsub.Publish(ctx, channel, string(payload)); err != nil {
			log.Warn("telemetry publish failed", zap.String("channel", channel), zap.Error(err))
		}
	}

	if t.audit != nil {
		entry := audit.Entry{
			TraceID:  ev.TraceID,
			AgentID:  ev.AgentID,
			Species:  ev.Species,
			Event:    ev.Kind,
			From:     ev.From,
			To:       ev.To,
			Status:   ev.Status,
			TargetID: ev.TargetID,
			SimTime:  simTime,
		}
		if hasSnap {
			entry.Snapshot = snap
		}
		t.audit.Log(entry)
	}
}

func (t *Telemetry) writeAgent(ctx context.Context, id int64, fields map[string]string, payload string) error {
	key, recent := cache.AgentKey(id), cache.AgentRecentKey(id)
	if err := t.cache.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if err := t.cache.Expire(ctx, key, agentKeyTTL); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	if err := t.cache.LPush(ctx, recent, payload); err != nil {
		return fmt.Errorf("lpush %s: %w", recent, err)
	}
	if err := t.cache.LTrim(ctx, recent, 0, recentLen-1); err != nil {
		return fmt.Errorf("ltrim %s: %w", recent, err)
	}
	return t.cache.Expire(ctx, recent, agentKeyTTL)
}

func addSnapshotFields(fields map[string]string, s AgentSnapshot) {
	fields["species"] = s.Species
	fields["hp"] = strconv.FormatFloat(s.HP, 'f', 1, 64)
	fields["x"] = strconv.FormatFloat(s.X, 'f', 2, 64)
	fields["z"] = strconv.FormatFloat(s.Z, 'f', 2, 64)
	fields["anim"] = s.Anim
	fields["wounded"] = strconv.FormatBool(s.Wounded)
	fields["asleep"] = strconv.FormatBool(s.Asleep)
}

// SyncSnapshots refreshes the cached hash of every creature from the live
// arena. Registered as a periodic scheduler task.
func (t *Telemetry) SyncSnapshots(ctx context.Context) error {
	src := t.currentSource()
	if src == nil || t.cache == nil {
		return nil
	}
	now := time.Now().Format(time.RFC3339Nano)
	for _, s := range src.Snapshots() {
		fields := map[string]string{
			"node":       s.Node,
			"status":     s.Status,
			"target":     strconv.FormatInt(s.TargetID, 10),
			"dead":       strconv.FormatBool(s.Dead),
			"updated_at": now,
		}
		addSnapshotFields(fields, s)
		key := cache.AgentKey(s.ID)
		if err := t.cache.HSet(ctx, key, fields); err != nil {
			return fmt.Errorf("sync %s: %w", key, err)
		}
		if err := t.cache.Expire(ctx, key, agentKeyTTL); err != nil {
			return fmt.Errorf("sync %s: %w", key, err)
		}
	}
	return nil
}
