// Package domain provides core business rules for the customer lifecycle
// bounded context: the status vocabulary, the transition engine, and the
// adaptive threshold calculator.
package domain

// Status is the lifecycle state of a customer-business relationship.
type Status string

const (
	// StatusNew is the creation-time state. The engine never transitions a
	// new relationship; only payment ingestion moves it to active.
	StatusNew Status = "new"
	// StatusActive means recent activity exists and the relationship has
	// never declined (or declined before the current active cycle began).
	StatusActive Status = "active"
	// StatusAtRisk means the gap since the last activity crossed the
	// at-risk threshold.
	StatusAtRisk Status = "at_risk"
	// StatusLost means the relationship stayed past the lost threshold
	// after already being observed at risk.
	StatusLost Status = "lost"
	// StatusRecovered means activity resumed after an at-risk or lost
	// period. A recovered relationship does not decay back to active.
	StatusRecovered Status = "recovered"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:       {},
	StatusActive:    {},
	StatusAtRisk:    {},
	StatusLost:      {},
	StatusRecovered: {},
}

// IsKnownStatus reports whether raw names one of the five lifecycle statuses.
func IsKnownStatus(raw string) bool {
	_, ok := knownStatuses[Status(raw)]
	return ok
}

// ParseStatus converts a stored string to a Status, reporting whether it is
// one of the known values.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := knownStatuses[s]
	return s, ok
}

// IsNotifiable reports whether a transition into this status should produce
// an outbound notification. Only decline and recovery states notify.
func (s Status) IsNotifiable() bool {
	switch s {
	case StatusAtRisk, StatusLost, StatusRecovered:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }
