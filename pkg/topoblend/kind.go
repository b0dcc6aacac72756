package topoblend

import (
	"fmt"
	"strings"
)

// Kind is the operation a task performs on its node.
type Kind int

const (
	Grow Kind = iota
	Shrink
	Morph
	Split
	Merge
)

var kindNames = [...]string{"GROW", "SHRINK", "MORPH", "SPLIT", "MERGE"}

// String returns the upper-case operation name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// morphs reports whether the kind shares MORPH's preparation and execution.
func (k Kind) morphs() bool {
	return k == Morph || k == Split || k == Merge
}

// ParseKind parses an operation name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// State is a task's position in its lifecycle.
type State int

const (
	StateUnprepared State = iota
	StateReady
	StateRunning
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "UNPREPARED"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
