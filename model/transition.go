package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event kinds stored in TransitionLog.
const (
	EventTransition = "transition"
	EventDeath      = "death"
)

// TransitionLog records one behavior change or the death of an agent.
type TransitionLog struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID  string `gorm:"index:idx_transition_trace;size:36;not null" json:"trace_id"`
	AgentID  int64  `gorm:"index:idx_transition_agent;not null" json:"agent_id"`
	Species  string `gorm:"size:64" json:"species"`
	Event    string `gorm:"size:16;not null" json:"event"`
	FromNode string `gorm:"size:32" json:"from"`
	ToNode   string `gorm:"size:32" json:"to"`
	Status   string `gorm:"size:16" json:"status"`
	// TargetID is nil when the agent had no target.
	TargetID  *int64         `json:"target_id"`
	SimTime   float64        `json:"sim_time"`
	Snapshot  datatypes.JSON `json:"snapshot"`
	CreatedAt time.Time      `gorm:"index:idx_transition_created;autoCreateTime:milli" json:"created_at"`
}
