package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/tagprogress/internal/progress"
)

func sampleOverview() *progress.Overview {
	return &progress.Overview{
		Mode: progress.ModeItems,
		Items: []progress.UnitStats{
			{Tag: "EDN::item-002-Beta", DisplayName: "002 Beta", Total: 1, Mastery: 0, Difficulty: 0.78},
			{Tag: "EDN::item-001-Alpha", DisplayName: "001 Alpha", Total: 2, Mastery: 0.5, Difficulty: 0.4},
		},
		Meta: progress.Meta{TotalUnits: 2, MedianMastery: 0.25, MeanMastery: 0.25, NumCriticalItems: 1},
	}
}

func TestOverview_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Overview(&buf, sampleOverview(), Options{CriticalDifficulty: 0.5}); err != nil {
		t.Fatalf("Overview: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"002 Beta", "001 Alpha", "50.0%", "0.78", "2 of 2 units (items)", "1 critical"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "002 Beta") > strings.Index(out, "001 Alpha") {
		t.Error("table must keep the overview order")
	}
}

func TestOverview_Limit(t *testing.T) {
	var buf bytes.Buffer
	if err := Overview(&buf, sampleOverview(), Options{Limit: 1}); err != nil {
		t.Fatalf("Overview: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "001 Alpha") {
		t.Errorf("limit not applied:\n%s", out)
	}
	if !strings.Contains(out, "1 of 2 units") {
		t.Errorf("summary = %s", out)
	}
}

func TestUnit(t *testing.T) {
	u := &progress.UnitStats{
		Tag:         "Matière::Cardio",
		DisplayName: "Cardio",
		Total:       4,
		Mastery:     0.25,
		Counts:      map[progress.CardState]int{progress.StateMature: 1, progress.StateNew: 3},
		Percent:     map[progress.CardState]float64{progress.StateMature: 0.25, progress.StateNew: 0.75},
	}
	var buf bytes.Buffer
	if err := Unit(&buf, u); err != nil {
		t.Fatalf("Unit: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Matière::Cardio", "notes 4", "new", "75.0%", "mature"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "suspended") {
		t.Error("empty states must be omitted")
	}
}

func TestBar(t *testing.T) {
	if got := strings.Count(bar(0.5), "█"); got != barWidth/2 {
		t.Errorf("filled = %d, want %d", got, barWidth/2)
	}
	if got := strings.Count(bar(1.7), "█"); got != barWidth {
		t.Errorf("overflow filled = %d", got)
	}
}
