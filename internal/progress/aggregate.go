package progress

// notePriority orders the active states a note can inherit, most remaining
// work first.
var notePriority = [...]CardState{
	StateNew,
	StateLearning,
	StateRelearning,
	StateRecent,
	StateMature,
}

// ReduceNote folds the states of a note's cards into one note state.
//
// A note is suspended or buried only when none of its cards is active; a
// mix of the two resolves to suspended. Otherwise the note takes the
// highest-priority state among its active cards. The second return value is
// false for a note without cards, which must not be counted at all.
func ReduceNote(states []CardState) (CardState, bool) {
	if len(states) == 0 {
		return "", false
	}

	var suspended, buried int
	var seen [len(notePriority)]bool
	for _, s := range states {
		switch s {
		case StateSuspended:
			suspended++
		case StateBuried:
			buried++
		default:
			for i, p := range notePriority {
				if s == p {
					seen[i] = true
					break
				}
			}
		}
	}

	switch {
	case suspended == len(states):
		return StateSuspended, true
	case buried == len(states):
		return StateBuried, true
	case suspended+buried == len(states):
		return StateSuspended, true
	}

	for i, p := range notePriority {
		if seen[i] {
			return p, true
		}
	}
	return StateOther, true
}
