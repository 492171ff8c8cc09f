package observability

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseResearch   Phase = "RESEARCH"
	PhaseCritique   Phase = "CRITIQUE"
	PhaseSynthesize Phase = "SYNTHESIZE"
)

// Snapshot is a point-in-time copy of the process status.
type Snapshot struct {
	Phase         Phase     `json:"phase"`
	ActiveTask    string    `json:"active_task,omitempty"`
	ActiveRuns    int       `json:"active_runs"`
	CompletedRuns int       `json:"completed_runs"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Uptime        string    `json:"uptime"`
}

type systemStatus struct {
	mu            sync.RWMutex
	phase         Phase
	activeTask    string
	activeRuns    int
	completedRuns int
	lastHeartbeat time.Time
}

var globalStatus = &systemStatus{
	phase:         PhaseIdle,
	lastHeartbeat: time.Now(),
}

// RunStarted records a new workflow run for task.
func RunStarted(task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.activeRuns++
	globalStatus.activeTask = task
	globalStatus.lastHeartbeat = time.Now()
	ActiveRuns.Inc()
	RunsStarted.Inc()
}

// RunFinished records the end of a run. status is "succeeded" or "failed".
func RunFinished(status string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	if globalStatus.activeRuns > 0 {
		globalStatus.activeRuns--
	}
	globalStatus.completedRuns++
	if globalStatus.activeRuns == 0 {
		globalStatus.phase = PhaseIdle
		globalStatus.activeTask = ""
	}
	globalStatus.lastHeartbeat = time.Now()
	ActiveRuns.Dec()
	RunsCompleted.WithLabelValues(status).Inc()
}

// SetPhase updates the most recently entered workflow phase.
func SetPhase(p Phase) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.phase = p
	globalStatus.lastHeartbeat = time.Now()
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastHeartbeat = time.Now()
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() Snapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return Snapshot{
		Phase:         globalStatus.phase,
		ActiveTask:    globalStatus.activeTask,
		ActiveRuns:    globalStatus.activeRuns,
		CompletedRuns: globalStatus.completedRuns,
		LastHeartbeat: globalStatus.lastHeartbeat,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
	}
}
