package progress

import "strings"

// rangRoot is the tag root under which rank labels live (rang::A).
const rangRoot = "rang"

// RangFilter keeps or drops notes by their rank label. Both values are
// optional; an empty string disables that side.
type RangFilter struct {
	only    string
	exclude string
}

// NewRangFilter builds a filter from the caller's only/exclude rank values.
func NewRangFilter(only, exclude string) RangFilter {
	return RangFilter{
		only:    strings.ToLower(strings.TrimSpace(only)),
		exclude: strings.ToLower(strings.TrimSpace(exclude)),
	}
}

// Active reports whether the filter can reject anything.
func (f RangFilter) Active() bool {
	return f.only != "" || f.exclude != ""
}

// Allow reports whether a note with the given lowercased tags passes.
func (f RangFilter) Allow(lowerTags []string) bool {
	if f.only != "" && !hasRang(lowerTags, f.only) {
		return false
	}
	if f.exclude != "" && hasRang(lowerTags, f.exclude) {
		return false
	}
	return true
}

// hasRang reports whether a tag's last segment is r, or the tag is rang::r.
func hasRang(lowerTags []string, r string) bool {
	suffix := TagSeparator + r
	for _, t := range lowerTags {
		if strings.HasSuffix(t, suffix) || t == rangRoot+suffix {
			return true
		}
	}
	return false
}

// SubjectMatcher tests note tags against the roots of a subject filter. A tag
// matches a root when it equals it or extends it after "::", "-" or "_".
type SubjectMatcher struct {
	roots []string
}

// NewSubjectMatcher builds a matcher for the given filter roots.
func NewSubjectMatcher(roots []string) SubjectMatcher {
	m := SubjectMatcher{roots: make([]string, 0, len(roots))}
	for _, r := range roots {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			m.roots = append(m.roots, r)
		}
	}
	return m
}

// Active reports whether any root is configured.
func (m SubjectMatcher) Active() bool {
	return len(m.roots) > 0
}

// Match reports whether any lowercased note tag falls under a root.
func (m SubjectMatcher) Match(lowerTags []string) bool {
	for _, t := range lowerTags {
		for _, root := range m.roots {
			if underRoot(t, root) {
				return true
			}
		}
	}
	return false
}

func underRoot(tag, root string) bool {
	if !strings.HasPrefix(tag, root) {
		return false
	}
	rest := tag[len(root):]
	return rest == "" ||
		strings.HasPrefix(rest, TagSeparator) ||
		strings.HasPrefix(rest, "-") ||
		strings.HasPrefix(rest, "_")
}

// Contains reports whether tag equals one of the roots, case-insensitively.
func (m SubjectMatcher) Contains(tag string) bool {
	lower := strings.ToLower(tag)
	for _, root := range m.roots {
		if lower == root {
			return true
		}
	}
	return false
}
