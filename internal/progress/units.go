package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// UnitStats is the published statistics record of one unit.
type UnitStats struct {
	Tag                 string                `json:"tag"`
	DisplayName         string                `json:"display_name"`
	Counts              map[CardState]int     `json:"counts"`
	Total               int                   `json:"total"`
	Percent             map[CardState]float64 `json:"percent"`
	Mastery             float64               `json:"mastery"`
	Difficulty          float64               `json:"difficulty"`
	DifficultySamples   int                   `json:"difficulty_samples"`
	StudiedRatio        float64               `json:"studied_ratio"`
	StudiedTotalRatio   float64               `json:"studied_total_ratio"`
	Unsuspended         int                   `json:"unsuspended"`
	SubjectOverlapCount int                   `json:"subject_overlap_count"`

	noteIDs []int64
}

// dropReason tells why a unit was left out of an overview.
type dropReason int

const (
	keep dropReason = iota
	dropEmpty
	dropSuspended
	dropOverlap
)

// maskRules are the unit-level filters applied by buildUnit.
type maskRules struct {
	suspendMask      float64
	overlapThreshold float64
	checkSuspension  bool
	checkOverlap     bool
}

// buildUnit converts raw counters into published ratios. Difficulty is left
// for fillDifficulty so only surviving units pay for provider lookups.
func buildUnit(acc *unitAcc, rules maskRules) (*UnitStats, dropReason) {
	total := acc.total()
	if total == 0 {
		return nil, dropEmpty
	}

	counts := make(map[CardState]int, len(AllStates))
	percent := make(map[CardState]float64, len(AllStates))
	for i, s := range AllStates {
		counts[s] = acc.counts[i]
		percent[s] = float64(acc.counts[i]) / float64(total)
	}

	if rules.checkSuspension && 1-percent[StateSuspended] <= rules.suspendMask {
		return nil, dropSuspended
	}
	if rules.checkOverlap && float64(acc.overlap)/float64(total) < rules.overlapThreshold {
		return nil, dropOverlap
	}

	unsuspended := total - counts[StateSuspended]
	activeStudied := max(0, total-counts[StateNew]-counts[StateSuspended]-counts[StateBuried])

	var studied float64
	if unsuspended > 0 {
		studied = clamp01(float64(activeStudied) / float64(unsuspended))
	}

	return &UnitStats{
		Tag:                 acc.tag,
		DisplayName:         DisplayName(acc.tag),
		Counts:              counts,
		Total:               total,
		Percent:             percent,
		Mastery:             clamp01(float64(counts[StateMature]) / float64(total)),
		StudiedRatio:        studied,
		StudiedTotalRatio:   clamp01(float64(activeStudied) / float64(total)),
		Unsuspended:         unsuspended,
		SubjectOverlapCount: acc.overlap,
		noteIDs:             acc.noteIDs,
	}, keep
}

// fillDifficulty averages provider difficulty over the cards of the first
// sampleNotes notes of the unit and normalizes it to [0,1]. Lookup failures
// are skipped.
func fillDifficulty(ctx context.Context, u *UnitStats, notes map[int64]*noteAcc, provider DifficultyProvider, sampleNotes int, logger *slog.Logger) {
	if provider == nil {
		return
	}
	ids := u.noteIDs
	if len(ids) > sampleNotes {
		ids = ids[:sampleNotes]
	}

	var sum float64
	var n int
	for _, nid := range ids {
		note, ok := notes[nid]
		if !ok {
			continue
		}
		for _, cid := range note.cardIDs {
			d, ok, err := provider.Difficulty(ctx, cid)
			if err != nil {
				logger.Debug("progress: difficulty lookup failed",
					slog.Int64("card_id", cid),
					slog.String("error", err.Error()))
				continue
			}
			if !ok {
				continue
			}
			sum += d
			n++
		}
	}
	if n > 0 {
		u.Difficulty = clamp01(sum / float64(n) / 10)
		u.DifficultySamples = n
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// DisplayName turns a unit tag into a human label.
//
//	EDN::item-027-Risques-foetaux -> "27 — Risques foetaux"
//	EDN::SDD-111-Saignement       -> "111 — Saignement"
//	Matière::Cardio_vasculaire    -> "Cardio vasculaire"
//
// Tags matching no pattern are returned unchanged.
func DisplayName(tag string) string {
	if i := strings.LastIndex(tag, "::item-"); i >= 0 {
		if num, rest, ok := strings.Cut(tag[i+len("::item-"):], "-"); ok {
			n, err := strconv.Atoi(num)
			if err != nil {
				return tag
			}
			return fmt.Sprintf("%d — %s", n, humanizeTag(rest))
		}
	} else if i := strings.LastIndex(tag, "::SDD-"); i >= 0 {
		if num, rest, ok := strings.Cut(tag[i+len("::SDD-"):], "-"); ok {
			return fmt.Sprintf("%s — %s", num, humanizeTag(rest))
		}
	}

	if strings.Contains(tag, TagSeparator) {
		parts := strings.Split(tag, TagSeparator)
		return wordSeparators.Replace(parts[len(parts)-1])
	}
	return tag
}

var (
	wordSeparators = strings.NewReplacer("-", " ", "_", " ")
	tagSeparators  = strings.NewReplacer("-", " ", "_", " ", TagSeparator, " : ")
)

func humanizeTag(s string) string {
	return tagSeparators.Replace(s)
}
