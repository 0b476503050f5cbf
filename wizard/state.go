// Package wizard coordinates multi-step instance entry. State is kept
// per session across four steps: setup, context, data entry, and
// review. The final step assembles a builder request from everything
// collected.
package wizard

import (
	"fmt"
	"time"
)

// Wizard step numbers.
const (
	StepSetup     = 0
	StepContext   = 1
	StepDataEntry = 2
	StepReview    = 3

	stepCount = 4
)

// StepData is the data collected from a single wizard step.
type StepData struct {
	Completed bool           `json:"completed"`
	Data      map[string]any `json:"data,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitzero"`
}

// State is the complete wizard state across all steps.
type State struct {
	CurrentStep int       `json:"current_step"`
	InstanceID  string    `json:"instance_id,omitempty"`
	Setup       StepData  `json:"step_0_setup"`
	Context     StepData  `json:"step_1_context"`
	Data        StepData  `json:"step_2_data"`
	Review      StepData  `json:"step_3_review"`
	StartedAt   time.Time `json:"started_at"`
}

// Step returns the step data for a step number.
func (s *State) Step(step int) (*StepData, error) {
	switch step {
	case StepSetup:
		return &s.Setup, nil
	case StepContext:
		return &s.Context, nil
	case StepDataEntry:
		return &s.Data, nil
	case StepReview:
		return &s.Review, nil
	default:
		return nil, fmt.Errorf("unknown wizard step %d", step)
	}
}

// stringValue reads a string-typed key from step data.
func (d *StepData) stringValue(key string) string {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
