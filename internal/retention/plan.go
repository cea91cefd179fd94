package retention

import "time"

// Plan is the evaluated outcome for one listing: every object accounted for,
// exactly one decision each.
type Plan struct {
	Decisions []Decision
}

// Evaluate classifies the given keys and runs them through the policy.
// It is a pure function of its inputs; calling it again with the keys that
// survive a previous plan produces no further deletions.
func Evaluate(keys []string, policy Policy, now time.Time) Plan {
	return Plan{Decisions: policy.Evaluate(Classify(keys), now)}
}

// Deletions returns the keys marked for removal, in decision order.
func (p Plan) Deletions() []string {
	var keys []string
	for _, d := range p.Decisions {
		if d.Action == ActionDelete {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Counts tallies decisions by action.
func (p Plan) Counts() (kept, deleted, skipped int) {
	for _, d := range p.Decisions {
		switch d.Action {
		case ActionKeep:
			kept++
		case ActionDelete:
			deleted++
		case ActionSkip:
			skipped++
		}
	}
	return kept, deleted, skipped
}
