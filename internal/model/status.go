package model

// Status is a letter's position in its lifecycle. The values are the wire
// strings the backend stores.
type Status string

const (
	StatusDraft    Status = "borrador"
	StatusReviewed Status = "revisado"
	StatusSent     Status = "enviado"
)

// Statuses lists the lifecycle in order.
var Statuses = []Status{StatusDraft, StatusReviewed, StatusSent}

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReviewed, StatusSent:
		return true
	}
	return false
}

// Label is the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusReviewed:
		return "reviewed"
	case StatusSent:
		return "sent"
	}
	return string(s)
}

// ParseStatus accepts either the wire value or the display label.
func ParseStatus(v string) (Status, bool) {
	for _, s := range Statuses {
		if v == string(s) || v == s.Label() {
			return s, true
		}
	}
	return "", false
}

// NextStatus returns the single forward step from current. The second
// result is false for sent and for anything that is not a lifecycle state.
func NextStatus(current Status) (Status, bool) {
	switch current {
	case StatusDraft:
		return StatusReviewed, true
	case StatusReviewed:
		return StatusSent, true
	}
	return "", false
}

// CanTransition reports whether from -> to is one forward step.
func CanTransition(from, to Status) bool {
	next, ok := NextStatus(from)
	return ok && next == to
}

// IsTerminal reports whether no further transition exists.
func IsTerminal(s Status) bool {
	_, ok := NextStatus(s)
	return !ok
}

// CanDelete reports whether l may be deleted. Advisory only: the server
// decides.
func CanDelete(l Letter) bool {
	return l.EffectiveStatus() == StatusDraft
}
