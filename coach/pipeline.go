package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/fittelligence/artifact"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/memory"
	"github.com/hupe1980/fittelligence/metrics"
	"github.com/hupe1980/fittelligence/runner"
	"github.com/hupe1980/fittelligence/session"
)

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Out receives the demo transcript; defaults to os.Stdout. Use io.Discard
	// to run silently.
	Out io.Writer
	// Stores are shared by every persona; nil stores default to in-memory.
	Stores        core.Stores
	Metrics       *metrics.Recorder
	MaxModelCalls int
	Clock         func() time.Time
	Logger        logging.Logger
}

// Step is the outcome of one pipeline step. Err is empty on success.
type Step struct {
	Number   int           `json:"number"`
	Title    string        `json:"title"`
	Agent    string        `json:"agent"`
	Message  string        `json:"message"`
	Response string        `json:"response"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Program is the result of a full pipeline run.
type Program struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Steps     []Step `json:"steps"`
}

// Response returns the response of the step run by agentName.
func (p *Program) Response(agentName string) string {
	for _, s := range p.Steps {
		if s.Agent == agentName {
			return s.Response
		}
	}
	return ""
}

type stepDef struct {
	persona string
	title   string
	message func(ClientProfile) string
}

var steps = []stepDef{
	{Reception, "Reception Agent - Collecting Client Information", ReceptionMessage},
	{BodyScanner, "Body Scanner Agent - Body Analysis", BodyScannerMessage},
	{PT, "PT Agent - Creating Training Plan", TrainingPlanMessage},
	{Nutrition, "Nutrition Agent - Creating Nutrition Plan", NutritionPlanMessage},
	{HeadCoach, "Head Coach Agent - Integrated Program", HeadCoachMessage},
}

// Pipeline runs the personas one after another over a shared set of stores.
// Every persona owns its session under the same user and session id.
type Pipeline struct {
	team    *Team
	runners map[string]*runner.Runner
	stores  core.Stores
	out     io.Writer
	metrics *metrics.Recorder
	clock   func() time.Time
	logger  logging.Logger
}

// NewPipeline creates a pipeline with one runner per persona.
func NewPipeline(team *Team, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{
		Out:           os.Stdout,
		MaxModelCalls: 25,
		Clock:         time.Now,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Stores.Sessions == nil {
		opts.Stores.Sessions = session.NewInMemoryStore()
	}
	if opts.Stores.Artifacts == nil {
		opts.Stores.Artifacts = artifact.NewInMemoryStore()
	}
	if opts.Stores.Memory == nil {
		opts.Stores.Memory = memory.NewInMemoryStore()
	}

	p := &Pipeline{
		team:    team,
		runners: make(map[string]*runner.Runner),
		stores:  opts.Stores,
		out:     opts.Out,
		metrics: opts.Metrics,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}

	for _, a := range team.Agents() {
		p.runners[a.Name()] = runner.New(a, func(o *runner.Options) {
			o.MaxModelCalls = opts.MaxModelCalls
			o.SessionStore = opts.Stores.Sessions
			o.ArtifactStore = opts.Stores.Artifacts
			o.MemoryStore = opts.Stores.Memory
			o.Logger = opts.Logger
		})
	}

	return p
}

// Team returns the personas driven by the pipeline.
func (p *Pipeline) Team() *Team { return p.team }

// Stores returns the stores shared by all personas.
func (p *Pipeline) Stores() core.Stores { return p.stores }

// Ask sends one message to a persona, creating its session if needed, and
// returns the text of the reply.
func (p *Pipeline) Ask(ctx context.Context, agentName, userID, sessionID, message string) (string, error) {
	r, ok := p.runners[agentName]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrAgentNotFound, agentName)
	}

	if _, err := r.EnsureSession(userID, sessionID); err != nil {
		return "", fmt.Errorf("ensure session: %w", err)
	}

	text, err := ask(ctx, r, userID, sessionID, message)
	if err != nil {
		return "", err
	}

	p.remember(r.Key(userID, sessionID))

	return text, nil
}

// Run executes the five steps in order for profile under a session id
// derived from the current second. A failing step is reported and leaves an
// empty response; later steps still run. Run only returns an error when ctx
// is done before the first step.
func (p *Pipeline) Run(ctx context.Context, profile ClientProfile) (*Program, error) {
	return p.RunSession(ctx, profile, NewSessionID(p.clock()))
}

// RunSession is Run with an explicit session id. Programs sharing a session
// id share every persona session.
func (p *Pipeline) RunSession(ctx context.Context, profile ClientProfile, sessionID string) (*Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile = profile.WithDefaults()

	prog := &Program{
		UserID:    profile.UserID(),
		SessionID: sessionID,
	}

	fmt.Fprintln(p.out, "\n✓ Created shared session store for all agents")
	fmt.Fprintln(p.out)

	p.logger.Info("pipeline.start", "user_id", prog.UserID, "session_id", prog.SessionID)

	for i, def := range steps {
		step := p.runStep(ctx, i+1, def, profile, prog)
		prog.Steps = append(prog.Steps, step)
	}

	p.logger.Info("pipeline.complete", "user_id", prog.UserID, "session_id", prog.SessionID)

	return prog, nil
}

func (p *Pipeline) runStep(ctx context.Context, n int, def stepDef, profile ClientProfile, prog *Program) Step {
	persona, _ := LookupPersona(def.persona)
	step := Step{
		Number:  n,
		Title:   fmt.Sprintf("Step %d: %s", n, def.title),
		Agent:   def.persona,
		Message: def.message(profile),
	}

	PrintSection(p.out, step.Title)

	fmt.Fprintf(p.out, "🤖 %s\n", persona.Label)
	fmt.Fprintf(p.out, "📝 Message: %s\n", step.Message)
	fmt.Fprint(p.out, "\n⏳ Processing...\n\n")

	logger := logging.With(p.logger, "step", n, "agent", def.persona)
	logger.Info("pipeline.step.start")

	start := p.clock()
	err := p.execute(ctx, &step, prog)
	step.Duration = p.clock().Sub(start)

	if err != nil {
		step.Err = err.Error()
		step.Response = ""
		fmt.Fprintf(p.out, "❌ Error: %v\n\n", err)
		logger.Error("pipeline.step.failed", "error", err.Error())
	} else if step.Response == "" {
		fmt.Fprint(p.out, "⚠️  No text response received. Check API credentials.\n\n")
		logger.Warn("pipeline.step.empty")
	} else {
		fmt.Fprintf(p.out, "✅ Response:\n%s\n\n", step.Response)
		logger.Info("pipeline.step.complete", "duration", step.Duration)
	}

	if p.metrics != nil {
		p.metrics.ObserveStep(n, def.persona, err == nil, step.Duration)
	}

	return step
}

func (p *Pipeline) execute(ctx context.Context, step *Step, prog *Program) error {
	r := p.runners[step.Agent]
	key := r.Key(prog.UserID, prog.SessionID)

	if err := p.ensureSession(key); err != nil {
		fmt.Fprintf(p.out, "❌ Failed to create session: %v\n", err)
		return err
	}

	text, err := ask(ctx, r, prog.UserID, prog.SessionID, step.Message)
	if err != nil {
		return err
	}

	step.Response = text

	p.remember(key)

	if text != "" {
		name := fmt.Sprintf("step-%d-%s.md", step.Number, step.Agent)
		if err := p.stores.Artifacts.Save(key, name, []byte(text)); err != nil {
			p.logger.Warn("pipeline.artifact.save_failed", "artifact", name, "error", err.Error())
		}
	}

	return nil
}

// ensureSession reuses or creates the session for key and reports which.
func (p *Pipeline) ensureSession(key core.SessionKey) error {
	sess, err := p.stores.Sessions.Get(key)
	if err == nil {
		fmt.Fprintf(p.out, "✓ Using existing session: %s\n", sess.ID)
		return nil
	}
	if !errors.Is(err, core.ErrSessionNotFound) {
		return err
	}

	sess, err = p.stores.Sessions.Create(key)
	if errors.Is(err, core.ErrSessionExists) {
		// Another program created it first.
		if sess, err = p.stores.Sessions.Get(key); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "✓ Using existing session: %s\n", sess.ID)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "✓ Created new session: %s for app: %s\n", sess.ID, key.AppName)

	sess, err = p.stores.Sessions.Get(key)
	if err != nil {
		return fmt.Errorf("session verification failed: %w", err)
	}
	fmt.Fprintf(p.out, "✓ Session verified after creation: %s\n", sess.ID)

	return nil
}

// remember ingests the session into long-term memory so later personas can
// recall it.
func (p *Pipeline) remember(key core.SessionKey) {
	sess, err := p.stores.Sessions.Get(key)
	if err != nil {
		p.logger.Warn("pipeline.memory.session_missing", "session", key.String(), "error", err.Error())
		return
	}

	if err := p.stores.Memory.AddSession(sess); err != nil {
		p.logger.Warn("pipeline.memory.add_failed", "session", key.String(), "error", err.Error())
	}
}

func ask(ctx context.Context, r *runner.Runner, userID, sessionID, message string) (string, error) {
	_, events, err := r.RunSync(ctx, userID, sessionID, core.NewTextContent(core.RoleUser, message))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, ev := range events {
		if ev.IsPartial() || ev.Content == nil || ev.Content.Role != core.RoleAssistant {
			continue
		}
		sb.WriteString(ev.Text())
	}

	return sb.String(), nil
}
