// Package report renders overviews for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starford/tagprogress/internal/progress"
)

const barWidth = 20

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numberStyle   = cellStyle.Align(lipgloss.Right)
	criticalStyle = cellStyle.Foreground(lipgloss.Color("9"))
	barFull       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barEmpty      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

// Headers of the overview table.
var Headers = []string{"Unit", "Notes", "Mastery", "", "Difficulty", "Unsusp.", "Studied"}

// Options tunes the overview table.
type Options struct {
	// Limit > 0 keeps only the first units.
	Limit int
	// CriticalDifficulty highlights units at or above it; 0 disables.
	CriticalDifficulty float64
}

// Overview writes ov as a table followed by a summary line.
func Overview(w io.Writer, ov *progress.Overview, opts Options) error {
	items := ov.Items
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	rows := make([][]string, 0, len(items))
	for _, u := range items {
		rows = append(rows, row(u))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(Headers...).
		Rows(rows...).
		StyleFunc(func(r, c int) lipgloss.Style {
			switch {
			case r == table.HeaderRow:
				return headerStyle
			case c == 4 && opts.CriticalDifficulty > 0 && r < len(items) && items[r].Difficulty >= opts.CriticalDifficulty:
				return criticalStyle.Align(lipgloss.Right)
			case c == 0 || c == 3:
				return cellStyle
			default:
				return numberStyle
			}
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("report: write table: %w", err)
	}
	_, err := fmt.Fprintln(w, dimStyle.Render(summary(ov, len(items))))
	return err
}

// Unit writes the statistics of a single tag, one state per line.
func Unit(w io.Writer, u *progress.UnitStats) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", titleStyle.Render(u.DisplayName), u.Tag)
	fmt.Fprintf(&b, "notes %d, mastery %s %s, difficulty %s (%d samples)\n",
		u.Total, percent(u.Mastery), bar(u.Mastery), ratio(u.Difficulty), u.DifficultySamples)
	for _, s := range progress.AllStates {
		if n := u.Counts[s]; n > 0 {
			fmt.Fprintf(&b, "  %-11s %5d  %s\n", s, n, percent(u.Percent[s]))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func row(u progress.UnitStats) []string {
	return []string{
		u.DisplayName,
		strconv.Itoa(u.Total),
		percent(u.Mastery),
		bar(u.Mastery),
		ratio(u.Difficulty),
		strconv.Itoa(u.Unsuspended),
		percent(u.StudiedRatio),
	}
}

func summary(ov *progress.Overview, shown int) string {
	m := ov.Meta
	return fmt.Sprintf("%d of %d units (%s). median mastery %s, mean %s. median difficulty %s. %d critical.",
		shown, m.TotalUnits, ov.Mode,
		percent(m.MedianMastery), percent(m.MeanMastery), ratio(m.MedianDifficulty), m.NumCriticalItems)
}

// bar draws v (0..1) as a fixed-width gauge.
func bar(v float64) string {
	filled := int(v*barWidth + 0.5)
	filled = max(0, min(barWidth, filled))
	return barFull.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
