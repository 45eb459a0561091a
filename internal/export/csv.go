// Package export renders overview units as a spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/starford/tagprogress/internal/progress"
)

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// Header is the first CSV record.
var Header = []string{
	"Tag", "Nom", "Total Cartes",
	"Part Désuspendue", "Ratio Appris/Désuspendu (%)",
	"Maîtrise (%)", "Difficulté FSRS (0-1)",
	"Inédites", "Apprentissage", "Réapprentissage", "Récentes", "Matures", "Suspendues", "Enfouies",
}

// WriteCSV writes units as semicolon-separated records preceded by a BOM.
func WriteCSV(w io.Writer, units []progress.UnitStats) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("export: write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, u := range units {
		c := u.Counts
		rec := []string{
			u.Tag,
			u.DisplayName,
			strconv.Itoa(u.Total),
			strconv.Itoa(u.Unsuspended),
			FormatDecimal(u.StudiedRatio * 100),
			FormatDecimal(u.Mastery * 100),
			FormatDecimal(u.Difficulty),
			strconv.Itoa(c[progress.StateNew]),
			strconv.Itoa(c[progress.StateLearning]),
			strconv.Itoa(c[progress.StateRelearning]),
			strconv.Itoa(c[progress.StateRecent]),
			strconv.Itoa(c[progress.StateMature]),
			strconv.Itoa(c[progress.StateSuspended]),
			strconv.Itoa(c[progress.StateBuried]),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: write %s: %w", u.Tag, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// FormatDecimal rounds f to four decimals and renders it with a decimal
// comma, always keeping at least one fractional digit: 60 -> "60,0".
func FormatDecimal(f float64) string {
	r := math.Round(f*1e4) / 1e4
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return strings.Replace(s, ".", ",", 1)
}
