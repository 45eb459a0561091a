package progress

import "strings"

// TagSeparator delimits hierarchy levels inside a tag.
const TagSeparator = "::"

// Index answers "which target tags does this note tag fall under" in time
// proportional to the depth of the note tag rather than the number of targets.
//
// A target T matches a note tag N when N equals T or N starts with T+"::",
// compared case-insensitively.
type Index struct {
	targets map[string]string // lowercased -> original spelling
}

// NewIndex builds an index over the given target tags.
func NewIndex(targets []string) *Index {
	idx := &Index{targets: make(map[string]string, len(targets))}
	for _, t := range targets {
		if t == "" {
			continue
		}
		lower := strings.ToLower(t)
		if _, ok := idx.targets[lower]; !ok {
			idx.targets[lower] = t
		}
	}
	return idx
}

// Len returns the number of distinct targets.
func (idx *Index) Len() int {
	return len(idx.targets)
}

// Contains reports whether the lowercased tag is a target.
func (idx *Index) Contains(lower string) bool {
	_, ok := idx.targets[lower]
	return ok
}

// Original returns the original spelling of a lowercased target.
func (idx *Index) Original(lower string) string {
	return idx.targets[lower]
}

// Match returns the lowercased targets the note tag satisfies: the tag itself
// and each strict ancestor prefix found in the target set.
func (idx *Index) Match(noteTag string) []string {
	var out []string
	idx.matchLower(strings.ToLower(noteTag), func(target string) {
		out = append(out, target)
	})
	return out
}

// matchLower calls fn for every target matched by an already lowercased tag.
// Ancestors are visited from the root down, the tag itself last. Separator
// occurrences may overlap ("a:::b" has ancestors "a" and "a:").
func (idx *Index) matchLower(lower string, fn func(target string)) {
	if len(idx.targets) == 0 || lower == "" {
		return
	}
	for i := 0; ; {
		j := strings.Index(lower[i:], TagSeparator)
		if j < 0 {
			break
		}
		prefix := lower[:i+j]
		if _, ok := idx.targets[prefix]; ok {
			fn(prefix)
		}
		i += j + 1
	}
	if _, ok := idx.targets[lower]; ok {
		fn(lower)
	}
}
