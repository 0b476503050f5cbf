package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/c360studio/sdcpipeline/builder"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// ErrStepIncomplete is returned when assembly runs before the required
// steps are completed.
var ErrStepIncomplete = errors.New("required wizard step not completed")

// Coordinator drives wizard sessions. Steps 0 (setup) and 2 (data) are
// always required; 1 (context) and 3 (review) are skippable unless
// configured otherwise.
type Coordinator struct {
	sessions SessionStore
	logger   *slog.Logger

	// ContextRequired and ReviewRequired make the optional steps
	// mandatory for this data model.
	ContextRequired bool
	ReviewRequired  bool

	// Now and NewID are swappable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewCoordinator creates a wizard coordinator over a session store.
func NewCoordinator(sessions SessionStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sessions: sessions,
		logger:   logger,
		Now:      time.Now,
		NewID:    builder.NewInstanceID,
	}
}

// State loads a session's state, starting a fresh one when none exists.
func (c *Coordinator) State(ctx context.Context, sessionID string) (*State, error) {
	state, err := c.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		state = &State{StartedAt: c.Now()}
		if err := c.sessions.Put(ctx, sessionID, state); err != nil {
			return nil, fmt.Errorf("start wizard session: %w", err)
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	return state, nil
}

// SaveStep stores data for a step, optionally marking it complete.
func (c *Coordinator) SaveStep(ctx context.Context, sessionID string, step int, data map[string]any, complete bool) (*State, error) {
	state, err := c.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stepData, err := state.Step(step)
	if err != nil {
		return nil, err
	}
	stepData.Data = data
	stepData.Errors = nil
	if complete {
		stepData.Completed = true
		stepData.Timestamp = c.Now()
	}

	if err := c.sessions.Put(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("save wizard step: %w", err)
	}
	return state, nil
}

// Advance moves the session to the next step if all prior steps allow
// it, and returns the new current step.
func (c *Coordinator) Advance(ctx context.Context, sessionID string) (int, error) {
	state, err := c.State(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	next := state.CurrentStep + 1
	if next >= stepCount {
		return state.CurrentStep, fmt.Errorf("wizard already at final step")
	}
	if !c.CanProceedTo(state, next) {
		return state.CurrentStep, fmt.Errorf("cannot proceed to step %d: %w", next, ErrStepIncomplete)
	}

	state.CurrentStep = next
	if err := c.sessions.Put(ctx, sessionID, state); err != nil {
		return 0, fmt.Errorf("save wizard step: %w", err)
	}
	return next, nil
}

// Back moves the session to the previous step.
func (c *Coordinator) Back(ctx context.Context, sessionID string) (int, error) {
	state, err := c.State(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if state.CurrentStep > 0 {
		state.CurrentStep--
		if err := c.sessions.Put(ctx, sessionID, state); err != nil {
			return 0, fmt.Errorf("save wizard step: %w", err)
		}
	}
	return state.CurrentStep, nil
}

// CanProceedTo reports whether all steps before the given one are
// completed or skippable.
func (c *Coordinator) CanProceedTo(state *State, step int) bool {
	for i := 0; i < step; i++ {
		stepData, err := state.Step(i)
		if err != nil {
			return false
		}
		if !stepData.Completed && !c.stepSkippable(i) {
			return false
		}
	}
	return true
}

func (c *Coordinator) stepSkippable(step int) bool {
	switch step {
	case StepContext:
		return !c.ContextRequired
	case StepReview:
		return !c.ReviewRequired
	default:
		return false
	}
}

// EnsureInstanceID returns the session's instance id, generating one
// on first use.
func (c *Coordinator) EnsureInstanceID(ctx context.Context, sessionID string) (string, error) {
	state, err := c.State(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if state.InstanceID == "" {
		state.InstanceID = c.NewID()
		if err := c.sessions.Put(ctx, sessionID, state); err != nil {
			return "", fmt.Errorf("save wizard instance id: %w", err)
		}
	}
	return state.InstanceID, nil
}

// Clear discards the session's state.
func (c *Coordinator) Clear(ctx context.Context, sessionID string) error {
	return c.sessions.Delete(ctx, sessionID)
}

// Assemble combines all step data into one build request. Setup and
// data entry must be completed; context and review contribute only
// when present.
func (c *Coordinator) Assemble(ctx context.Context, sessionID string) (builder.Request, error) {
	state, err := c.State(ctx, sessionID)
	if err != nil {
		return builder.Request{}, err
	}
	if !state.Setup.Completed || !state.Data.Completed {
		return builder.Request{}, ErrStepIncomplete
	}

	instanceID, err := c.EnsureInstanceID(ctx, sessionID)
	if err != nil {
		return builder.Request{}, err
	}

	req := builder.Request{
		InstanceID:      instanceID,
		InstanceVersion: state.Setup.stringValue("instance_version"),
		CurrentState:    state.Setup.stringValue("current_state"),
		Fields:          assembleFields(state.Data.Data),
	}

	if state.Context.Completed {
		req.Subject = assembleParty(&state.Context, "subject")
		req.Provider = assembleParty(&state.Context, "provider")
		req.Participations = assembleParticipations(&state.Context)
	}

	if state.Review.Completed {
		req.Audit = assembleAudit(&state.Review)
		req.Attestation = assembleAttestation(&state.Review)
	}

	return req, nil
}

// assembleFields turns data-entry values into field inputs. A scalar
// entry is a plain value; a map entry carries the value alongside its
// per-field metadata (ev, units, vtb, and the rest).
func assembleFields(data map[string]any) map[string]builder.FieldInput {
	fields := make(map[string]builder.FieldInput, len(data))
	for ctID, raw := range data {
		entry, ok := raw.(map[string]any)
		if !ok {
			fields[ctID] = builder.FieldInput{Value: raw}
			continue
		}

		input := builder.FieldInput{
			Value:    entry["value"],
			Units:    stringEntry(entry, "units"),
			ACT:      stringEntry(entry, "act"),
			VTB:      stringEntry(entry, "vtb"),
			VTE:      stringEntry(entry, "vte"),
			TR:       stringEntry(entry, "tr"),
			Modified: stringEntry(entry, "modified"),
		}
		if ev := stringEntry(entry, "ev"); ev != "" {
			input.EV = sdc4.EVCode(ev)
		}
		if lat, ok := floatEntry(entry, "latitude"); ok {
			input.Latitude = &lat
		}
		if lon, ok := floatEntry(entry, "longitude"); ok {
			input.Longitude = &lon
		}
		fields[ctID] = input
	}
	return fields
}

func assembleParty(step *StepData, prefix string) *builder.Party {
	party := &builder.Party{
		Name:        step.stringValue(prefix + "_name"),
		Type:        step.stringValue(prefix + "_type"),
		ID:          step.stringValue(prefix + "_id"),
		IDScheme:    step.stringValue(prefix + "_id_scheme"),
		ExternalRef: step.stringValue(prefix + "_external_ref"),
	}
	if *party == (builder.Party{}) {
		return nil
	}
	return party
}

// assembleParticipations reads the indexed flat keys the entry form
// submits: participation_0_name, participation_0_function, and so on,
// stopping at the first index with no name.
func assembleParticipations(step *StepData) []builder.Participation {
	var participations []builder.Participation
	for idx := 0; ; idx++ {
		prefix := fmt.Sprintf("participation_%d_", idx)
		name := step.stringValue(prefix + "name")
		if name == "" {
			break
		}
		participations = append(participations, builder.Participation{
			Name:     name,
			Function: step.stringValue(prefix + "function"),
			Mode:     step.stringValue(prefix + "mode"),
			Time:     step.stringValue(prefix + "time"),
			Ref:      step.stringValue(prefix + "id"),
		})
	}
	return participations
}

func assembleAudit(step *StepData) *builder.Audit {
	audit := &builder.Audit{
		System:        step.stringValue("audit_system"),
		TimeCommitted: step.stringValue("audit_time_committed"),
		ChangeType:    step.stringValue("audit_change_type"),
		Description:   step.stringValue("audit_description"),
		Committer:     step.stringValue("audit_committer"),
	}
	if *audit == (builder.Audit{}) {
		return nil
	}
	return audit
}

func assembleAttestation(step *StepData) *builder.Attestation {
	attestation := &builder.Attestation{
		View:     step.stringValue("attestation_view"),
		Proof:    step.stringValue("attestation_proof"),
		Reason:   step.stringValue("attestation_reason"),
		Attester: step.stringValue("attester_name"),
		Time:     step.stringValue("attestation_time"),
	}
	if pending := step.stringValue("attestation_pending"); pending != "" {
		attestation.Pending, _ = strconv.ParseBool(pending)
	}
	if *attestation == (builder.Attestation{}) {
		return nil
	}
	return attestation
}

func stringEntry(entry map[string]any, key string) string {
	v, ok := entry[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func floatEntry(entry map[string]any, key string) (float64, bool) {
	switch v := entry[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
