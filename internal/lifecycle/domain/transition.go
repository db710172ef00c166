package domain

// activityBucket classifies the activity gap against the two thresholds.
type activityBucket int

const (
	bucketRecent activityBucket = iota // days < atRiskThreshold
	bucketAtRisk                       // atRiskThreshold <= days < lostThreshold
	bucketLost                         // days >= lostThreshold
)

func bucketFor(days int, t Thresholds) activityBucket {
	switch {
	case float64(days) < t.AtRiskDays:
		return bucketRecent
	case float64(days) < t.LostDays:
		return bucketAtRisk
	default:
		return bucketLost
	}
}

// NextStatus is the pure transition function of the lifecycle engine.
//
// daysSinceActivity is nil when the relationship has no recorded activity at
// all; in that case there is nothing to judge and the current status is
// returned unchanged. A relationship in StatusNew is frozen here as well:
// only payment ingestion may move it forward.
//
// Two rules are deliberate and must not be "simplified":
//
//   - A relationship can never jump from active/recovered straight to lost.
//     Even when the gap already exceeds the lost threshold, the first
//     evaluation lands on at_risk; a later evaluation may then mark it lost.
//     Every customer is therefore observed at risk (and notified) at least
//     once before being written off.
//
//   - recovered is sticky. Continuing activity keeps a recovered
//     relationship recovered; it does not decay back to active.
func NextStatus(current Status, daysSinceActivity *int, t Thresholds) Status {
	if current == StatusNew || daysSinceActivity == nil {
		return current
	}

	bucket := bucketFor(*daysSinceActivity, t)

	switch current {
	case StatusActive, StatusRecovered:
		switch bucket {
		case bucketRecent:
			return current
		default: // bucketAtRisk, bucketLost
			return StatusAtRisk
		}
	case StatusAtRisk:
		switch bucket {
		case bucketRecent:
			return StatusRecovered
		case bucketAtRisk:
			return StatusAtRisk
		default:
			return StatusLost
		}
	case StatusLost:
		switch bucket {
		case bucketRecent:
			return StatusRecovered
		default:
			return StatusLost
		}
	default:
		return current
	}
}
