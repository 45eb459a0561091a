package progress

import (
	"slices"
	"strings"
)

// Tag families recognized by the reporting modes.
const (
	itemPrefix = "EDN::item-"
)

var (
	sddPrefixes        = []string{"edn::sdd", "edn::ssdd", "sdd", "ssdd"}
	nonSubjectPrefixes = []string{"EDN::", "SSDD::", "SDD::"}
	searchablePrefixes = []string{"EDN::item-", "EDN::SDD", "Matière::"}
)

// ItemTags returns the curriculum item tags, sorted.
func ItemTags(all []string) []string {
	var out []string
	for _, t := range all {
		if strings.HasPrefix(t, itemPrefix) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// SDDTags returns the starting-situation tags, sorted.
func SDDTags(all []string) []string {
	var out []string
	for _, t := range all {
		lower := strings.ToLower(t)
		for _, p := range sddPrefixes {
			if strings.HasPrefix(lower, p) {
				out = append(out, t)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// SubjectTags returns every tag outside the item/SDD families none of whose
// segments is blacklisted, sorted.
func SubjectTags(all, blacklist []string) []string {
	deny := make(map[string]struct{}, len(blacklist))
	for _, b := range blacklist {
		deny[strings.ToLower(b)] = struct{}{}
	}

	out := make([]string, 0)
	for _, t := range all {
		if isSubject(t, deny) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

func isSubject(tag string, deny map[string]struct{}) bool {
	for _, p := range nonSubjectPrefixes {
		if strings.HasPrefix(tag, p) {
			return false
		}
	}
	for _, seg := range strings.Split(tag, TagSeparator) {
		if _, ok := deny[strings.ToLower(seg)]; ok {
			return false
		}
	}
	return true
}

// isChildTag reports whether the tag sits below the first unit level.
func isChildTag(tag string) bool {
	return strings.Count(tag, TagSeparator) > 1
}

// selectTargets enumerates the unit tags for one overview request.
func selectTargets(all []string, o *Options) []string {
	var targets []string
	switch o.Mode {
	case ModeItems:
		targets = ItemTags(all)
	case ModeSDD:
		targets = SDDTags(all)
	default:
		targets = SubjectTags(all, o.blacklist())
		if filter := NewSubjectMatcher(o.SubjectFilter); filter.Active() {
			targets = slices.DeleteFunc(targets, func(t string) bool {
				return !filter.Contains(t)
			})
		}
	}

	if allow := NewSubjectMatcher(o.SubjectTags); allow.Active() {
		targets = slices.DeleteFunc(targets, func(t string) bool {
			return !allow.Contains(t)
		})
	}

	if !o.IncludeChildren {
		targets = slices.DeleteFunc(targets, isChildTag)
	}
	return slices.Compact(targets)
}

// matchSearch reports whether every term occurs in the lowercased tag.
func matchSearch(lowerTag string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(lowerTag, term) {
			return false
		}
	}
	return true
}

func searchable(tag string) bool {
	for _, p := range searchablePrefixes {
		if strings.HasPrefix(tag, p) {
			return true
		}
	}
	return false
}
