// Package nodestate is the single source of truth for per-node run state
// during and after a streamed run. It is deliberately decoupled from the
// flow's node/edge collections: records are keyed by node id and reset
// independently of topology changes.
//
// The store is mutated by the streaming run client and read by renderers,
// so every operation is safe for concurrent use. Status transitions follow
// IDLE → IN_PROGRESS → {COMPLETE | ERROR}; only ResetAllNodes moves a
// terminal node back to IDLE. Staleness across runs is not the store's
// concern: the run client aborts the previous stream before resetting, so
// by the time a write arrives here it belongs to the current run.
package nodestate

import (
	"sort"
	"sync"

	"github.com/quantflow/quantflow/internal/flow"
	"github.com/quantflow/quantflow/internal/report"
)

// LogEntry is one progress message for an agent node. Entries accumulate in
// arrival order; the timestamp is display metadata and never used for
// ordering or merge decisions.
type LogEntry struct {
	Ticker    string `json:"ticker,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Record is the runtime state of one node.
type Record struct {
	Status Status `json:"status"`
	// Logs is append-only, insertion order chronological.
	Logs []LogEntry `json:"logs,omitempty"`
	// Analysis maps ticker → latest analysis fragment (last write wins).
	Analysis map[string]string `json:"analysis,omitempty"`
}

// Patch is a partial update for one node, produced from a progress event.
type Patch struct {
	Status    Status
	Ticker    string
	Message   string
	Timestamp string
	// Analysis fragments are merged per ticker with last-write-wins
	// semantics; nil values are filtered out before the merge.
	Analysis map[string]*string
}

// Store tracks runtime records for every node that has received an update,
// plus the terminal output payload of the most recent completed run.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	output  *report.OutputNodeData
	models  map[string]flow.ModelConfig

	notify chan struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records: make(map[string]*Record),
		models:  make(map[string]flow.ModelConfig),
		notify:  make(chan struct{}, 1),
	}
}

// Changed returns a channel that receives a coalesced signal after every
// mutation. Renderers drain it to re-read snapshots; sends never block.
func (s *Store) Changed() <-chan struct{} {
	return s.notify
}

func (s *Store) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the node's record. Nodes without a record read
// as idle with empty logs and analysis.
func (s *Store) Snapshot(nodeID string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[nodeID]
	if !ok {
		return Record{Status: StatusIdle}
	}
	out := Record{Status: r.Status}
	out.Logs = append(out.Logs, r.Logs...)
	if len(r.Analysis) > 0 {
		out.Analysis = make(map[string]string, len(r.Analysis))
		for k, v := range r.Analysis {
			out.Analysis[k] = v
		}
	}
	return out
}

// Status returns the node's current status.
func (s *Store) Status(nodeID string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[nodeID]; ok {
		return r.Status
	}
	return StatusIdle
}

// NodeIDs returns the ids of every node with a record, sorted.
func (s *Store) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AnyInProgress reports whether any node is currently running.
func (s *Store) AnyInProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Status == StatusInProgress {
			return true
		}
	}
	return false
}

// UpdateAgentNode merges a partial update into the node's record: the
// status is overwritten, a non-empty message is appended to the log, and
// analysis fragments are merged per ticker with last-write-wins semantics.
func (s *Store) UpdateAgentNode(nodeID string, p Patch) {
	s.mu.Lock()
	r := s.record(nodeID)
	if p.Status != "" {
		r.Status = p.Status
	}
	if p.Message != "" {
		r.Logs = append(r.Logs, LogEntry{Ticker: p.Ticker, Message: p.Message, Timestamp: p.Timestamp})
	}
	for ticker, v := range p.Analysis {
		if v == nil {
			continue
		}
		if r.Analysis == nil {
			r.Analysis = make(map[string]string)
		}
		r.Analysis[ticker] = *v
	}
	s.mu.Unlock()
	s.signal()
}

// UpdateAgentNodes bulk-assigns a status without touching logs or analysis.
// Used to mark every selected agent COMPLETE or ERROR at stream
// termination; completion is authoritative over per-agent stragglers.
func (s *Store) UpdateAgentNodes(nodeIDs []string, status Status) {
	s.mu.Lock()
	for _, id := range nodeIDs {
		s.record(id).Status = status
	}
	s.mu.Unlock()
	s.signal()
}

// ResetAllNodes clears every record back to implicit IDLE and drops the
// output payload. Idempotent; safe to call before every run and on cancel.
func (s *Store) ResetAllNodes() {
	s.mu.Lock()
	s.records = make(map[string]*Record)
	s.output = nil
	s.mu.Unlock()
	s.signal()
}

// SetOutputNodeData replaces the terminal aggregate wholesale.
func (s *Store) SetOutputNodeData(data *report.OutputNodeData) {
	s.mu.Lock()
	s.output = data
	s.mu.Unlock()
	s.signal()
}

// OutputNodeData returns the most recent completed run's payload, or nil.
func (s *Store) OutputNodeData() *report.OutputNodeData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

// SetAgentModel records an agent's configured model. Model configuration
// survives ResetAllNodes: it is run input, not run state.
func (s *Store) SetAgentModel(nodeID string, m flow.ModelConfig) {
	s.mu.Lock()
	s.models[nodeID] = m
	s.mu.Unlock()
	s.signal()
}

// AllAgentModels returns a snapshot of every configured per-agent model.
func (s *Store) AllAgentModels() map[string]flow.ModelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]flow.ModelConfig, len(s.models))
	for k, v := range s.models {
		out[k] = v
	}
	return out
}

// record returns the node's record, creating it on first touch.
func (s *Store) record(nodeID string) *Record {
	r, ok := s.records[nodeID]
	if !ok {
		r = &Record{Status: StatusIdle}
		s.records[nodeID] = r
	}
	return r
}
