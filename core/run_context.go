package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/fittelligence/logging"
)

// Stores groups the backing services available during a run. Any field may
// be nil; helpers return ErrStoreNotConfigured (or an empty result for reads).
type Stores struct {
	Sessions  SessionStore
	Artifacts ArtifactStore
	Memory    MemoryStore
}

// RunContext is the mutable, per-run execution scope passed to an Agent's
// Run method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (session key, run id, agent info)
//   - The triggering user Content
//   - Emission / resumption channels shared with the runner
//   - Backing stores and a working Session snapshot
//
// State mutations performed via SetState accumulate in StateDelta until
// EmitEvent attaches them to the next event.
type RunContext struct {
	Context     context.Context
	Key         SessionKey
	RunID       string
	Agent       AgentInfo
	UserContent Content
	Emit        chan<- Event
	Resume      <-chan struct{}
	Stores      Stores
	Limiter     *ModelLimiter
	Session     *Session
	StateDelta  map[string]any
	Artifacts   []string

	*loggerAdapter
}

// NewRunContext constructs a RunContext with empty state and artifact deltas.
// A nil limiter allows unlimited model calls.
func NewRunContext(
	ctx context.Context,
	key SessionKey,
	runID string,
	agent AgentInfo,
	userContent Content,
	emit chan<- Event,
	resume <-chan struct{},
	sess *Session,
	stores Stores,
	limiter *ModelLimiter,
	logger logging.Logger,
) *RunContext {
	if limiter == nil {
		limiter = NewModelLimiter(0)
	}

	return &RunContext{
		Context:       ctx,
		Key:           key,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          emit,
		Resume:        resume,
		Stores:        stores,
		Limiter:       limiter,
		Session:       sess,
		StateDelta:    map[string]any{},
		Artifacts:     []string{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged (delta) value if present, else the session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// StateView merges the session state with the staged delta.
func (rc *RunContext) StateView() map[string]any {
	view := map[string]any{}
	if rc.Session != nil {
		view = rc.Session.StateSnapshot()
	}

	maps.Copy(view, rc.StateDelta)

	return view
}

// SetState stages a state mutation in the delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// AddArtifact stages an artifact name for the next emitted event.
func (rc *RunContext) AddArtifact(name string) { rc.Artifacts = append(rc.Artifacts, name) }

// SaveArtifact stores bytes in the ArtifactStore and stages the name.
func (rc *RunContext) SaveArtifact(name string, data []byte) error {
	if rc.Stores.Artifacts == nil {
		return fmt.Errorf("save artifact %q: %w", name, ErrStoreNotConfigured)
	}

	if err := rc.Stores.Artifacts.Save(rc.Key, name, data); err != nil {
		return err
	}

	rc.AddArtifact(name)

	return nil
}

// GetArtifact retrieves previously saved artifact bytes.
func (rc *RunContext) GetArtifact(name string) ([]byte, error) {
	if rc.Stores.Artifacts == nil {
		return nil, fmt.Errorf("get artifact %q: %w", name, ErrStoreNotConfigured)
	}

	return rc.Stores.Artifacts.Get(rc.Key, name)
}

// ListArtifacts returns artifact names stored for the session.
func (rc *RunContext) ListArtifacts() ([]string, error) {
	if rc.Stores.Artifacts == nil {
		return []string{}, nil
	}

	return rc.Stores.Artifacts.List(rc.Key)
}

// SearchMemory queries the MemoryStore for memories of the session's user.
func (rc *RunContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if rc.Stores.Memory == nil {
		return []SearchResult{}, nil
	}

	return rc.Stores.Memory.Search(rc.Key.UserID, q, limit)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.Stores.Sessions == nil {
		return fmt.Errorf("refresh session: %w", ErrStoreNotConfigured)
	}

	s, err := rc.Stores.Sessions.Get(rc.Key)
	if err != nil {
		return err
	}

	rc.Session = s

	return nil
}

// GetSessionHistory returns all historical events for the session.
func (rc *RunContext) GetSessionHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}

	return rc.Session.GetEvents()
}

// GetAgentName returns the logical agent name for this run.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// EmitEvent merges pending StateDelta / Artifacts into the event and emits it.
// The buffers are cleared only after the event was accepted.
func (rc *RunContext) EmitEvent(ev Event) error {
	if ev.RunID == "" {
		ev.RunID = rc.RunID
	}

	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
	}

	if len(rc.Artifacts) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		for _, name := range rc.Artifacts {
			ev.Actions.ArtifactDelta[name] = 1
		}
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	rc.StateDelta = map[string]any{}
	rc.Artifacts = []string{}

	return nil
}

// WaitForResume blocks until Resume signals or the context is cancelled.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}

	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
