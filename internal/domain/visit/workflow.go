package visit

// State is the derived workflow position of a visit. It is computed from
// which step records exist plus the completion flag, never stored.
type State string

const (
	StateNeedsVitals       State = "needs_vitals"
	StateNeedsDoctor       State = "needs_doctor"
	StateNeedsPsychiatrist State = "needs_psychiatrist"
	StateNeedsLab          State = "needs_lab"
	StateReadyToComplete   State = "ready_to_complete"
	StateCompleted         State = "completed"
)

// WorkflowStatus is the presence set of a visit's step records plus its
// completion flag. All workflow decisions are pure functions of this value.
type WorkflowStatus struct {
	Vitals       bool
	Doctor       bool
	Psychiatrist bool
	Lab          bool
	Completed    bool
}

func (ws WorkflowStatus) has(s Step) bool {
	switch s {
	case StepVitals:
		return ws.Vitals
	case StepDoctor:
		return ws.Doctor
	case StepPsychiatrist:
		return ws.Psychiatrist
	case StepLab:
		return ws.Lab
	}
	return false
}

// NextStep returns the first unsatisfied step in the fixed order, or
// StepComplete once all four records exist.
func (ws WorkflowStatus) NextStep() Step {
	for _, s := range stepOrder {
		if !ws.has(s) {
			return s
		}
	}
	return StepComplete
}

// State maps the presence set to the derived visit state.
func (ws WorkflowStatus) State() State {
	if ws.Completed {
		return StateCompleted
	}
	switch ws.NextStep() {
	case StepVitals:
		return StateNeedsVitals
	case StepDoctor:
		return StateNeedsDoctor
	case StepPsychiatrist:
		return StateNeedsPsychiatrist
	case StepLab:
		return StateNeedsLab
	}
	return StateReadyToComplete
}

// ProgressCount returns how many of the four step records exist, in [0,4].
// Independent of the completion flag.
func (ws WorkflowStatus) ProgressCount() int {
	n := 0
	for _, s := range stepOrder {
		if ws.has(s) {
			n++
		}
	}
	return n
}

// Access is the outcome of a workflow gate check. When not allowed,
// RedirectTo names the step the caller should be sent to instead.
type Access struct {
	Allowed    bool
	RedirectTo Step
}

// EvaluateAccess decides whether the requested step may be entered given
// the visit's current status. Exactly the first unsatisfied step is
// allowed; everything else, including re-entry to an already-satisfied
// step, is denied with a redirect to the current step. A completed visit
// only allows the (idempotent) complete action.
func EvaluateAccess(ws WorkflowStatus, requested Step) Access {
	if ws.Completed {
		if requested == StepComplete {
			return Access{Allowed: true}
		}
		return Access{RedirectTo: StepComplete}
	}
	next := ws.NextStep()
	if requested == next {
		return Access{Allowed: true}
	}
	return Access{RedirectTo: next}
}

// BucketCounts partitions incomplete visits by the step they are waiting
// on. A visit with zero steps counts only toward WaitingVitals; a visit
// with all four steps recorded but not yet completed falls into no bucket.
type BucketCounts struct {
	WaitingVitals     int `json:"waiting_vitals"`
	WaitingDoctor     int `json:"waiting_doctor"`
	WaitingPsychiatry int `json:"waiting_psychiatry"`
	WaitingLab        int `json:"waiting_lab"`
}

// CountBuckets computes the waiting-step distribution over a set of visit
// statuses. Completed visits are skipped.
func CountBuckets(statuses []WorkflowStatus) BucketCounts {
	var bc BucketCounts
	for _, ws := range statuses {
		if ws.Completed {
			continue
		}
		switch ws.NextStep() {
		case StepVitals:
			bc.WaitingVitals++
		case StepDoctor:
			bc.WaitingDoctor++
		case StepPsychiatrist:
			bc.WaitingPsychiatry++
		case StepLab:
			bc.WaitingLab++
		}
	}
	return bc
}

// StatusSummary is the wire shape of the visit status API.
type StatusSummary struct {
	VitalsCompleted       bool `json:"vitals_completed"`
	DoctorCompleted       bool `json:"doctor_completed"`
	PsychiatristCompleted bool `json:"psychiatrist_completed"`
	LabRequested          bool `json:"lab_requested"`
	Completed             bool `json:"completed"`
}

func (ws WorkflowStatus) Summary() StatusSummary {
	return StatusSummary{
		VitalsCompleted:       ws.Vitals,
		DoctorCompleted:       ws.Doctor,
		PsychiatristCompleted: ws.Psychiatrist,
		LabRequested:          ws.Lab,
		Completed:             ws.Completed,
	}
}
