package progress

// stateCounts holds per-state note counts indexed like AllStates.
type stateCounts [len(AllStates)]int

func stateIndex(s CardState) int {
	for i, st := range AllStates {
		if st == s {
			return i
		}
	}
	return len(AllStates) - 1 // other
}

// noteAcc collects the cards of one note during the scan.
type noteAcc struct {
	id      int64
	tags    []string // lowercased
	cardIDs []int64
	states  []CardState
}

// unitAcc is the raw counter set for one target tag.
type unitAcc struct {
	tag     string
	counts  stateCounts
	noteIDs []int64 // first-seen order; one entry per counted note
	overlap int
}

func (u *unitAcc) total() int {
	return len(u.noteIDs)
}

// scanParams is the subset of Options the scan needs.
type scanParams struct {
	matureInterval int
	rang           RangFilter
	subjects       SubjectMatcher
}

// scanResult is the outcome of one pass over the record store.
type scanResult struct {
	units map[string]*unitAcc // keyed by lowercased target
	notes map[int64]*noteAcc
	rows  int
}

// scan makes one pass over rows, grouping cards by note, then counts each
// surviving note once per matched target using its reduced note state.
//
// Counting by reduced note state, rather than by the state of whichever card
// of the note is met first, keeps sum(counts) == total for every unit.
func scan(rows []Row, idx *Index, p scanParams) *scanResult {
	res := &scanResult{
		units: make(map[string]*unitAcc, idx.Len()),
		notes: make(map[int64]*noteAcc),
		rows:  len(rows),
	}
	for lower, orig := range idx.targets {
		res.units[lower] = &unitAcc{tag: orig}
	}

	order := make([]*noteAcc, 0)
	for _, r := range rows {
		n, ok := res.notes[r.NoteID]
		if !ok {
			n = &noteAcc{id: r.NoteID, tags: lowerAll(ParseTags(r.Tags))}
			res.notes[r.NoteID] = n
			order = append(order, n)
		}
		n.cardIDs = append(n.cardIDs, r.CardID)
		n.states = append(n.states, Classify(r.Kind, r.Queue, r.Interval, p.matureInterval))
	}

	if idx.Len() == 0 {
		return res
	}

	matched := make(map[string]struct{})
	for _, n := range order {
		if len(n.tags) == 0 {
			continue
		}
		if !p.rang.Allow(n.tags) {
			continue
		}
		state, ok := ReduceNote(n.states)
		if !ok {
			continue
		}

		clear(matched)
		for _, t := range n.tags {
			idx.matchLower(t, func(target string) {
				matched[target] = struct{}{}
			})
		}
		if len(matched) == 0 {
			continue
		}

		inSubject := p.subjects.Active() && p.subjects.Match(n.tags)
		si := stateIndex(state)
		for target := range matched {
			u := res.units[target]
			u.counts[si]++
			u.noteIDs = append(u.noteIDs, n.id)
			if inSubject {
				u.overlap++
			}
		}
	}
	return res
}
