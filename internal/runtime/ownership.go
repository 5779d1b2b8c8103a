package runtime

import (
	"slices"

	"github.com/aretw0/foreman/pkg/domain"
)

// checkOwnership verifies that a node only touched the fields it owns and
// that the append-only collections were only appended to.
func checkOwnership(agent domain.AgentName, prev, next *domain.State) error {
	violation := func(format string, args ...any) error {
		return domain.NewFailure(domain.FailureInvariant, agent, nil, format, args...)
	}

	if next.RunID != prev.RunID || next.Query != prev.Query {
		return violation("run identity changed")
	}
	if next.StepCount != prev.StepCount {
		return violation("step count is owned by the engine")
	}
	if next.Phase != prev.Phase || next.Failure != nil {
		return violation("phase and failure are owned by the engine")
	}

	if len(next.History) != len(prev.History)+1 {
		return violation("expected exactly one history entry, got %d", len(next.History)-len(prev.History))
	}
	if !slices.Equal(prev.History, next.History[:len(prev.History)]) {
		return violation("history was rewritten")
	}
	if last := next.History[len(next.History)-1]; last.Agent != agent {
		return violation("history entry attributed to %q", last.Agent)
	}

	if len(next.Facts) < len(prev.Facts) || !slices.Equal(prev.Facts, next.Facts[:len(prev.Facts)]) {
		return violation("facts were removed or reordered")
	}
	if len(next.Facts) > len(prev.Facts) && agent != domain.AgentResearch {
		return violation("only research may add facts")
	}

	if next.Draft != prev.Draft {
		if agent != domain.AgentWriting {
			return violation("only writing may set the draft")
		}
		if prev.Draft != "" {
			return violation("draft is already set")
		}
	}

	if agent != domain.AgentSupervisor && (next.TaskKind != prev.TaskKind || next.NextAgent != prev.NextAgent) {
		return violation("only the supervisor may route")
	}
	return nil
}
