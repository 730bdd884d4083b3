package want

import "context"

// State describes the want state of a single product as seen by observers.
type State int

const (
	// NotWanted indicates the product is not in the user's goods
	NotWanted State = iota
	// Wanted indicates the server confirmed the product is in the user's goods
	Wanted
	// ModifyingToNotWanted indicates an unwant request is in flight
	ModifyingToNotWanted
	// ModifyingToWanted indicates a want request is in flight
	ModifyingToWanted
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Wanted:
		return "WANTED"
	case ModifyingToNotWanted:
		return "MODIFYING_TO_NOT_WANTED"
	case ModifyingToWanted:
		return "MODIFYING_TO_WANTED"
	default:
		return "NOT_WANTED"
	}
}

// IsWanted reports whether the state is Wanted or ModifyingToWanted.
func (s State) IsWanted() bool {
	return s == Wanted || s == ModifyingToWanted
}

// IsModifying reports whether a request is in flight.
func (s State) IsModifying() bool {
	return s == ModifyingToWanted || s == ModifyingToNotWanted
}

type entryKind int

const (
	entryWanted entryKind = iota + 1
	entryModifying
)

// entry is the stored state of one product. A missing entry means NotWanted.
type entry struct {
	kind entryKind

	// set when kind == entryWanted
	goodDeletePath string

	// set when kind == entryModifying
	cancel     context.CancelFunc
	target     bool
	generation uint64
}

func wantedEntry(goodDeletePath string) entry {
	return entry{kind: entryWanted, goodDeletePath: goodDeletePath}
}

func modifyingEntry(cancel context.CancelFunc, target bool, generation uint64) entry {
	return entry{kind: entryModifying, cancel: cancel, target: target, generation: generation}
}

// stateOf derives the observable state of id from a snapshot.
func stateOf(entries map[int64]entry, id int64) State {
	e, ok := entries[id]
	if !ok {
		return NotWanted
	}

	switch e.kind {
	case entryWanted:
		return Wanted
	case entryModifying:
		if e.target {
			return ModifyingToWanted
		}
		return ModifyingToNotWanted
	default:
		return NotWanted
	}
}
