package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/tagprogress/internal/progress"
)

// optionsFromQuery overrides o with the options present in q. List options
// are repeated parameters; a single empty value yields an empty list.
func optionsFromQuery(q url.Values, o progress.Options) (progress.Options, error) {
	if v := q.Get("mode"); v != "" {
		o.Mode = progress.Mode(v)
	}
	if q.Has("only_rang") {
		o.OnlyRang = q.Get("only_rang")
	}
	if q.Has("exclude_rang") {
		o.ExcludeRang = q.Get("exclude_rang")
	}

	var err error
	parseBool := func(key string, dst *bool) {
		if err != nil || !q.Has(key) {
			return
		}
		var v bool
		if v, err = strconv.ParseBool(q.Get(key)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
			return
		}
		*dst = v
	}
	parseFloat := func(key string, dst *float64) {
		if err != nil || !q.Has(key) {
			return
		}
		var v float64
		if v, err = strconv.ParseFloat(q.Get(key), 64); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
			return
		}
		*dst = v
	}
	parseInt := func(key string, dst *int) {
		if err != nil || !q.Has(key) {
			return
		}
		var v int
		if v, err = strconv.Atoi(q.Get(key)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
			return
		}
		*dst = v
	}

	parseBool("include_children", &o.IncludeChildren)
	parseFloat("suspend_mask_threshold", &o.SuspendMaskThreshold)
	parseFloat("overlap_threshold", &o.OverlapThreshold)
	parseFloat("desuspended_threshold", &o.DesuspendedThreshold)
	parseFloat("critical_difficulty", &o.CriticalDifficulty)
	parseInt("window_days", &o.WindowDays)
	parseInt("mature_ivl", &o.MatureInterval)
	parseInt("difficulty_sample_notes", &o.DifficultySampleNotes)
	if err != nil {
		return o, err
	}

	if q.Has("subject_tags") {
		o.SubjectTags = listParam(q["subject_tags"])
	}
	if q.Has("subject_filter") {
		o.SubjectFilter = listParam(q["subject_filter"])
	}
	if q.Has("subject_blacklist") {
		o.SubjectBlacklist = listParam(q["subject_blacklist"])
	}
	return o, nil
}

func listParam(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
