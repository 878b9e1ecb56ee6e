package domain

// statusTransitions is the authoritative transition graph. Directed, no
// implicit reverse edges; any pair not listed here is rejected.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:             {StatusReview, StatusArchived},
	StatusReview:            {StatusApproved, StatusUnderRevision, StatusDeclined},
	StatusUnderRevision:     {StatusDraft},
	StatusApproved:          {StatusPendingSignatures, StatusArchived},
	StatusPendingSignatures: {StatusSigned, StatusExpired},
	StatusSigned:            {StatusPublished, StatusArchived},
	StatusPublished:         {StatusArchived},
}

// CanTransition reports whether the edge from -> to is in the graph.
func CanTransition(from, to DocumentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the edge from -> to against the graph. It is pure:
// callers wrap the persistence update in a transaction.
func Transition(from, to DocumentStatus) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidStatus
	}
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// TransitionTargets returns the statuses reachable from the given status.
func TransitionTargets(from DocumentStatus) []DocumentStatus {
	targets := statusTransitions[from]
	out := make([]DocumentStatus, len(targets))
	copy(out, targets)
	return out
}
