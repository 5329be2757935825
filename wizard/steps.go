package wizard

import (
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type Step int

const (
	StepDevice Step = iota + 1
	StepServiceType
	StepDuration
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepDevice:
		return "device"
	case StepServiceType:
		return "service_type"
	case StepDuration:
		return "duration"
	case StepPayment:
		return "payment"
	}
	return "unknown"
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// StepValid recomputes the completion predicate of step from the form.
func StepValid(f Form, step Step) bool {
	switch step {
	case StepDevice:
		return f.CategoryID != 0 && f.BrandID != 0 && present(f.Model) && len(f.Faults) >= 1
	case StepServiceType:
		switch f.ServiceType {
		case models.ServiceLocalDropoff:
			return f.AgentID != 0
		case models.ServiceCollectionDelivery:
			return f.AgentID != 0 &&
				present(f.Street) &&
				present(f.Pincode) &&
				present(f.CollectionDate) &&
				present(f.CollectionTime) &&
				present(f.DeliveryDate) &&
				present(f.DeliveryTime)
		case models.ServicePostal:
			return present(f.Street) && present(f.Pincode) && f.CityID != 0
		}
		return false
	case StepDuration:
		return present(f.DurationType)
	case StepPayment:
		return f.PaymentMethod.Valid()
	}
	return false
}

// FirstInvalidStep returns the earliest incomplete step, or 0 when all are valid.
func FirstInvalidStep(f Form) Step {
	for s := StepDevice; s <= StepPayment; s++ {
		if !StepValid(f, s) {
			return s
		}
	}
	return 0
}

// State is the wizard position together with its form.
type State struct {
	Step Step `json:"step"`
	Form Form `json:"form"`
}

func New() State {
	return State{Step: StepDevice}
}

// Dispatch applies actions to the form without moving between steps.
func (s State) Dispatch(actions ...Action) State {
	return State{Step: s.Step, Form: Apply(s.Form, actions...)}
}

// Next advances one step when the current step is complete.
func (s State) Next() (State, error) {
	if !StepValid(s.Form, s.Step) {
		return s, apperr.Validation("step %d (%s) is incomplete", s.Step, s.Step)
	}
	if s.Step == StepPayment {
		return s, apperr.Validation("already at the final step")
	}
	return State{Step: s.Step + 1, Form: s.Form.clone()}, nil
}

// Back moves one step back; it never fails.
func (s State) Back() State {
	if s.Step <= StepDevice {
		return State{Step: StepDevice, Form: s.Form.clone()}
	}
	return State{Step: s.Step - 1, Form: s.Form.clone()}
}

// CanSubmit reports whether the form is complete on every step.
func (s State) CanSubmit() bool {
	return FirstInvalidStep(s.Form) == 0
}
