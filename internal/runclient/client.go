// Package runclient executes an analysis run against the backend and drives
// the node state store from the live event stream.
//
// One client owns at most one active run. Starting a new run aborts the
// previous one's stream consumption before resetting shared state, so a
// straggling event from an old stream can never mutate state after a
// reset: the current-run handle is replaced first and every dispatch
// checks it by identity.
package runclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/quantflow/quantflow/internal/agents"
	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/flow"
	"github.com/quantflow/quantflow/internal/nodestate"
	"github.com/quantflow/quantflow/internal/runreq"
	"github.com/quantflow/quantflow/internal/sse"
)

// runPath is the streaming run endpoint.
const runPath = "/hedge-fund/run"

// OutputNodeID is the report sink marked complete when a run finishes.
const OutputNodeID = flow.ReportNodeID

// readBufSize is the chunk size for incremental stream reads.
const readBufSize = 4096

// Client issues runs against one backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	states  *nodestate.Store

	mu      sync.Mutex
	current *Run
}

// New returns a client for the given backend base URL, driving the given
// state store. token may be empty; the request is then sent
// unauthenticated and the backend decides rejection.
func New(baseURL, token string, httpClient *http.Client, states *nodestate.Store) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient, states: states}
}

// Run is the cancellation handle and completion future of one invocation.
type Run struct {
	selected []string
	cancel   context.CancelFunc
	aborted  atomic.Bool
	done     chan struct{}
	err      error
}

// Abort stops stream consumption immediately. An intentional abort is not
// a failure: it never marks nodes ERROR.
func (r *Run) Abort() {
	r.aborted.Store(true)
	r.cancel()
}

// Wait blocks until the run reaches a terminal state and returns its
// transport error, if any. A self-initiated abort returns nil.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Aborted reports whether the run was cancelled via Abort.
func (r *Run) Aborted() bool {
	return r.aborted.Load()
}

// Start begins a run: it aborts any previous in-flight run, resets all
// node runtime state, sends the request, and consumes the event stream in
// a background goroutine until a terminal event, end of stream, or abort.
func (c *Client) Start(ctx context.Context, req *runreq.Request) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		selected: req.SelectedAgents,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	// Replace the current-run handle before touching shared state; the old
	// stream's dispatches fail the identity check from here on.
	c.mu.Lock()
	prev := c.current
	c.current = run
	c.mu.Unlock()
	if prev != nil {
		prev.Abort()
	}

	c.states.ResetAllNodes()

	go func() {
		defer close(run.done)
		defer cancel()
		if err := c.consume(runCtx, run, req); err != nil {
			if run.aborted.Load() || errors.Is(err, context.Canceled) {
				// Intentional cancel; leave node state as the caller reset it.
				return
			}
			ctxlog.FromContext(ctx).Error("Run stream failed.", "error", err)
			run.err = err
			c.dispatchFailure(run)
		}
	}()
	return run
}

// Stop aborts the active run, if any, and resets all node state.
func (c *Client) Stop() {
	c.mu.Lock()
	run := c.current
	c.current = nil
	c.mu.Unlock()
	if run != nil {
		run.Abort()
	}
	c.states.ResetAllNodes()
}

// isCurrent reports whether run still owns the client's state writes.
func (c *Client) isCurrent(run *Run) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == run
}

// consume sends the request and drives the store until the stream ends.
func (c *Client) consume(ctx context.Context, run *Run, req *runreq.Request) error {
	logger := ctxlog.FromContext(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode run request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+runPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send run request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("run request rejected: status %d", resp.StatusCode)
	}

	dec := sse.NewDecoder()
	buf := make([]byte, readBufSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				c.dispatch(ctx, run, ev)
			}
		}
		if readErr == io.EOF {
			if rest := dec.Rest(); rest != "" {
				logger.Debug("Discarding unterminated stream tail.", "bytes", len(rest))
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read run stream: %w", readErr)
		}
	}
}

// dispatch applies one decoded event to the state store. Malformed events
// are logged and skipped; unknown types are logged and ignored.
func (c *Client) dispatch(ctx context.Context, run *Run, ev sse.Event) {
	logger := ctxlog.FromContext(ctx)
	if !c.isCurrent(run) {
		logger.Debug("Dropping event from superseded run.", "type", ev.Type)
		return
	}
	if ev.Err != nil {
		logger.Warn("Skipping malformed stream event.", "error", ev.Err)
		return
	}

	switch ev.Type {
	case EventStart:
		// A backend start is authoritative; the reset is idempotent.
		c.states.ResetAllNodes()

	case EventProgress:
		var p progressData
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			logger.Warn("Skipping undecodable progress event.", "error", err)
			return
		}
		if p.Agent == "" {
			return
		}
		status := nodestate.StatusInProgress
		if p.Status == doneStatus {
			status = nodestate.StatusComplete
		}
		patch := nodestate.Patch{
			Status:    status,
			Ticker:    p.Ticker,
			Message:   p.Status,
			Timestamp: p.Timestamp,
		}
		if text := analysisText(p.Analysis); text != nil && p.Ticker != "" {
			patch.Analysis = map[string]*string{p.Ticker: text}
		}
		c.states.UpdateAgentNode(agents.NodeID(p.Agent), patch)

	case EventComplete:
		var payload completeData
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			logger.Warn("Skipping undecodable complete event.", "error", err)
			return
		}
		if payload.Data != nil {
			c.states.SetOutputNodeData(payload.Data)
		}
		// Overall completion is authoritative over per-agent stragglers.
		c.states.UpdateAgentNodes(run.selected, nodestate.StatusComplete)
		c.states.UpdateAgentNode(OutputNodeID, nodestate.Patch{
			Status:  nodestate.StatusComplete,
			Message: "Analysis complete",
		})

	case EventError:
		c.states.UpdateAgentNodes(run.selected, nodestate.StatusError)

	default:
		logger.Warn("Ignoring unknown stream event type.", "type", ev.Type)
	}
}

// dispatchFailure marks every originally selected agent ERROR after a
// transport-level failure, provided the run is still current.
func (c *Client) dispatchFailure(run *Run) {
	if !c.isCurrent(run) {
		return
	}
	c.states.UpdateAgentNodes(run.selected, nodestate.StatusError)
}
