package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/fittelligence/artifact"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/memory"
	"github.com/hupe1980/fittelligence/session"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// AppName scopes the sessions of the agent; defaults to the agent name.
	AppName string
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run; 0 is unlimited.
	MaxModelCalls int
	// Stores default to in-memory implementations.
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore
	Logger        logging.Logger
}

// Runner coordinates agent execution for one agent. Public methods are safe
// for concurrent use.
type Runner struct {
	agent core.Agent

	appName         string
	eventBufferSize int
	maxModelCalls   int
	stores          core.Stores
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		AppName:         agent.Name(),
		EventBufferSize: 100,
		MaxModelCalls:   25,
		SessionStore:    session.NewInMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		MemoryStore:     memory.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		agent:           agent,
		appName:         opts.AppName,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		stores: core.Stores{
			Sessions:  opts.SessionStore,
			Artifacts: opts.ArtifactStore,
			Memory:    opts.MemoryStore,
		},
		logger:     opts.Logger,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Agent returns the agent driven by the runner.
func (r *Runner) Agent() core.Agent { return r.agent }

// AppName returns the application name sessions are scoped by.
func (r *Runner) AppName() string { return r.appName }

// Stores returns the backing stores.
func (r *Runner) Stores() core.Stores { return r.stores }

// Key builds the session key of userID and sessionID for this runner.
func (r *Runner) Key(userID, sessionID string) core.SessionKey {
	return core.SessionKey{AppName: r.appName, UserID: userID, SessionID: sessionID}
}

// EnsureSession returns the session, creating it when it does not exist.
func (r *Runner) EnsureSession(userID, sessionID string) (*core.Session, error) {
	key := r.Key(userID, sessionID)

	sess, err := r.stores.Sessions.Get(key)
	if err == nil {
		return sess, nil
	}

	if !errors.Is(err, core.ErrSessionNotFound) {
		return nil, err
	}

	sess, err = r.stores.Sessions.Create(key)
	if errors.Is(err, core.ErrSessionExists) {
		// Lost a race with a concurrent creator.
		return r.stores.Sessions.Get(key)
	}

	if err == nil {
		r.logger.Debug("runner.session.created", "session", key.String())
	}

	return sess, err
}

// Run starts an asynchronous turn. The session must exist. The returned
// event channel is closed when the turn ends; at most one error is sent on
// the error channel before it is closed.
func (r *Runner) Run(
	ctx context.Context,
	userID string,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	key := r.Key(userID, sessionID)

	sess, err := r.stores.Sessions.Get(key)
	if err != nil {
		return "", nil, nil, fmt.Errorf("get session: %w", err)
	}

	runID := core.NewID()

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.stores.Sessions.AppendEvent(key, userEvent); err != nil {
		return "", nil, nil, fmt.Errorf("append user event: %w", err)
	}
	sess.AddEvent(userEvent)

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	agentErr := make(chan error, 1)
	resumeCh := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	runCtx := core.NewRunContext(
		ctx,
		key,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: fmt.Sprintf("%T", r.agent)},
		userContent,
		agentEmit,
		resumeCh,
		sess,
		r.stores,
		core.NewModelLimiter(r.maxModelCalls),
		logging.With(r.logger, "run_id", runID, "agent", r.agent.Name()),
	)

	r.logger.Info("runner.run.start", "agent", r.agent.Name(), "session", key.String(), "run_id", runID)

	go func() {
		defer close(agentEmit)

		agentErr <- r.agent.Run(runCtx)
	}()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			close(eventsCh)
			close(errorsCh)
		}()

		if err := r.processEvents(runCtx, agentEmit, resumeCh, eventsCh); err != nil {
			r.logger.Error("runner.run.failed", "run_id", runID, "error", err.Error())
			errorsCh <- err
			return
		}

		if err := <-agentErr; err != nil {
			r.logger.Warn("runner.run.agent_error", "run_id", runID, "error", err.Error())
			errorsCh <- fmt.Errorf("agent execution failed: %w", err)
			return
		}

		r.logger.Info("runner.run.complete", "agent", r.agent.Name(), "run_id", runID)
	}()

	return runID, eventsCh, errorsCh, nil
}

// RunSync runs a turn and collects all events. The events gathered so far are
// returned together with any error.
func (r *Runner) RunSync(ctx context.Context, userID, sessionID string, userContent core.Content) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := r.Run(ctx, userID, sessionID, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}

	if err := <-errorsCh; err != nil {
		return runID, events, err
	}

	return runID, events, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// processEvents persists and relays agent events until the agent closes its
// emit channel. The agent is resumed after each non-partial event.
func (r *Runner) processEvents(
	runCtx *core.RunContext,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
) error {
	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case ev, ok := <-agentEmit:
			if !ok {
				// A cancelled run reports the cancellation, not the agent's view of it.
				return runCtx.Err()
			}

			if !ev.IsPartial() {
				if err := r.persist(runCtx.Key, ev); err != nil {
					return err
				}
			}

			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case eventsCh <- ev:
			}

			if !ev.IsPartial() {
				select {
				case resumeCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// persist applies the event's state delta and appends it to the session.
func (r *Runner) persist(key core.SessionKey, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.stores.Sessions.ApplyDelta(key, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("apply state delta: %w", err)
		}
	}

	if len(ev.Actions.ArtifactDelta) > 0 {
		r.logger.Debug("runner.event.artifacts", "session", key.String(), "count", len(ev.Actions.ArtifactDelta))
	}

	if err := r.stores.Sessions.AppendEvent(key, ev); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return nil
}
