package campaign

import "strings"

// Status describes the campaign lifecycle state.
type Status int

const (
	// StatusDraft indicates an owner-editable, unpublished campaign.
	StatusDraft Status = iota
	// StatusPublished indicates a live campaign accepting donations.
	StatusPublished
	// StatusCancelled indicates a draft that was withdrawn before publication.
	StatusCancelled
)

// isStatusTransitionAllowed enforces valid campaign lifecycle transitions.
// Published and Cancelled are terminal.
func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPublished || to == StatusCancelled
	default:
		return false
	}
}

// IsStatusTransitionAllowed reports whether a status transition is permitted.
func IsStatusTransitionAllowed(from, to Status) bool {
	return isStatusTransitionAllowed(from, to)
}

// IsTerminal reports whether no further lifecycle transition exists.
func (s Status) IsTerminal() bool {
	return s == StatusPublished || s == StatusCancelled
}

// Label returns a stable label for a campaign status.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "DRAFT"
	case StatusPublished:
		return "PUBLISHED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status. It trims whitespace
// and matches case-insensitively.
func StatusFromLabel(value string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DRAFT":
		return StatusDraft, true
	case "PUBLISHED":
		return StatusPublished, true
	case "CANCELLED":
		return StatusCancelled, true
	default:
		return StatusDraft, false
	}
}
