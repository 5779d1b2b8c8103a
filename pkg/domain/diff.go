package domain

// StateDiff represents the changes between two snapshots of a run.
// It is serialized to JSON for streaming partial updates to clients.
type StateDiff struct {
	// RunID is always present to identify the target.
	RunID string `json:"run_id"`

	Phase     *Phase    `json:"phase,omitempty"`
	TaskKind  *TaskKind `json:"task_kind,omitempty"`
	NextAgent *Route    `json:"next_agent,omitempty"`
	StepCount *int      `json:"step_count,omitempty"`

	// Facts and History are append-only, so only new entries are sent.
	Facts   []Fact `json:"facts,omitempty"`
	History []Turn `json:"history,omitempty"`

	Draft   *string  `json:"draft,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, the diff describes the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &State{}
	}

	diff := &StateDiff{RunID: newState.RunID}

	if oldState.Phase != newState.Phase {
		diff.Phase = &newState.Phase
	}
	if oldState.TaskKind != newState.TaskKind {
		diff.TaskKind = &newState.TaskKind
	}
	if oldState.NextAgent != newState.NextAgent {
		diff.NextAgent = &newState.NextAgent
	}
	if oldState.StepCount != newState.StepCount {
		diff.StepCount = &newState.StepCount
	}
	if len(newState.Facts) > len(oldState.Facts) {
		diff.Facts = newState.Facts[len(oldState.Facts):]
	}
	if len(newState.History) > len(oldState.History) {
		diff.History = newState.History[len(oldState.History):]
	}
	if oldState.Draft != newState.Draft {
		diff.Draft = &newState.Draft
	}
	if oldState.Failure == nil && newState.Failure != nil {
		diff.Failure = newState.Failure
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.TaskKind == nil &&
		d.NextAgent == nil &&
		d.StepCount == nil &&
		len(d.Facts) == 0 &&
		len(d.History) == 0 &&
		d.Draft == nil &&
		d.Failure == nil
}
