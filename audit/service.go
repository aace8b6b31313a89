package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/npcbrain/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
	// MaxQueryLimit caps Recent.
	MaxQueryLimit = 500
)

// Entry holds one agent event to be logged.
type Entry struct {
	TraceID  string
	AgentID  int64
	Species  string
	Event    string
	From     string
	To       string
	Status   string
	TargetID int64 // 0 = no target
	SimTime  float64
	Snapshot interface{}
}

// Service logs agent events asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.TransitionLog
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	dropped  uint64
	mu       sync.Mutex
	logger   *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.TransitionLog, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry for an async DB write. It never blocks; entries are
// dropped when the queue is full or the service has stopped.
func (svc *Service) Log(entry Entry) {
	snap, err := json.Marshal(entry.Snapshot)
	if err != nil {
		svc.logger.Warn("audit snapshot not serialisable", zap.Int64("agent_id", entry.AgentID), zap.Error(err))
		snap = []byte("null")
	}
	record := &model.TransitionLog{
		TraceID:  entry.TraceID,
		AgentID:  entry.AgentID,
		Species:  entry.Species,
		Event:    entry.Event,
		FromNode: entry.From,
		ToNode:   entry.To,
		Status:   entry.Status,
		SimTime:  entry.SimTime,
		Snapshot: datatypes.JSON(snap),
	}
	if entry.TargetID != 0 {
		id := entry.TargetID
		record.TargetID = &id
	}
	select {
	case <-svc.stopCh:
		svc.drop(entry)
		return
	default:
	}
	select {
	case svc.ch <- record:
	default:
		svc.drop(entry)
	}
}

func (svc *Service) drop(entry Entry) {
	svc.mu.Lock()
	svc.dropped++
	svc.mu.Unlock()
	svc.logger.Warn("audit channel full, dropping entry",
		zap.Int64("agent_id", entry.AgentID),
		zap.String("event", entry.Event))
}

// Dropped reports how many entries were discarded.
func (svc *Service) Dropped() uint64 {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.dropped
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished or ctx is done.
func (svc *Service) Stop(ctx context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		svc.logger.Warn("audit stop timed out before flush finished")
	}
}

// Query narrows Recent. Zero fields match everything.
type Query struct {
	AgentID int64
	// To is the display name of the node entered.
	To    string
	Limit int
}

// Recent returns the newest matching records, newest first.
func (svc *Service) Recent(ctx context.Context, q Query) ([]model.TransitionLog, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	tx := svc.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if q.AgentID != 0 {
		tx = tx.Where("agent_id = ?", q.AgentID)
	}
	if q.To != "" {
		tx = tx.Where("to_node = ?", q.To)
	}
	var out []model.TransitionLog
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	return out, nil
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.TransitionLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
