package enums

import "fmt"

// EntityStatus tracks the processing lifecycle shared by products, variants
// and gammes.
type EntityStatus string

const (
	EntityStatusPending    EntityStatus = "pending"
	EntityStatusProcessing EntityStatus = "processing"
	EntityStatusCompleted  EntityStatus = "completed"
	EntityStatusError      EntityStatus = "error"
)

var validEntityStatuses = []EntityStatus{
	EntityStatusPending,
	EntityStatusProcessing,
	EntityStatusCompleted,
	EntityStatusError,
}

// String implements fmt.Stringer.
func (s EntityStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntityStatus.
func (s EntityStatus) IsValid() bool {
	for _, candidate := range validEntityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status needs no further processing.
func (s EntityStatus) IsTerminal() bool {
	return s == EntityStatusCompleted || s == EntityStatusError
}

// ParseEntityStatus converts raw input into an EntityStatus.
func ParseEntityStatus(value string) (EntityStatus, error) {
	for _, candidate := range validEntityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity status %q", value)
}
