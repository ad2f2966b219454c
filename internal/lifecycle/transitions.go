package lifecycle

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

var allowedTransitions = map[entity.LeadStatus][]entity.LeadStatus{
	entity.StatusNewCold: {
		entity.StatusCallScheduled,
		entity.StatusContactEstablished,
		entity.StatusClosedLost,
	},
	entity.StatusCallScheduled: {
		entity.StatusContactEstablished,
		entity.StatusClosedLost,
	},
	entity.StatusContactEstablished: {
		entity.StatusFirstApptPending,
		entity.StatusFirstApptScheduled,
		entity.StatusCallScheduled,
		entity.StatusClosedLost,
	},
	entity.StatusFirstApptPending: {
		entity.StatusFirstApptScheduled,
		entity.StatusCallScheduled,
		entity.StatusClosedLost,
	},
	entity.StatusFirstApptScheduled: {
		entity.StatusFirstApptCompleted,
		entity.StatusClosedLost,
	},
	entity.StatusFirstApptCompleted: {
		entity.StatusSecondApptScheduled,
		entity.StatusCallScheduled,
		entity.StatusClosedLost,
	},
	entity.StatusSecondApptScheduled: {
		entity.StatusSecondApptCompleted,
		entity.StatusClosedLost,
	},
	entity.StatusSecondApptCompleted: {
		entity.StatusClosedWon,
		entity.StatusClosedLost,
	},
}

// IsTransitionAllowed reports whether the backend accepts moving a lead from
// one status to another. Staying in the same status is always allowed.
func IsTransitionAllowed(from, to entity.LeadStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
