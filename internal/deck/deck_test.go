package deck

import (
	"strings"
	"testing"

	"github.com/starford/tagprogress/internal/progress"
)

const sample = `
tags: [Matière::Pneumo]
notes:
  - id: 5
    tags: ["EDN::item-001-A", "Matière::Cardio"]
    cards:
      - {id: 50, type: review, ivl: 30, difficulty: 4.5}
      - {type: review, queue: suspended, ivl: 3}
  - tags: ["EDN::item-002-B  rang::A"]
    cards:
      - {type: learning}
`

func TestParseAndRecords(t *testing.T) {
	d, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	recs := d.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3 (two notes and the registry note)", len(recs))
	}

	first := recs[0]
	if first.ID != 5 || len(first.Cards) != 2 {
		t.Fatalf("first note = %+v", first)
	}
	if c := first.Cards[0]; c.Queue != progress.QueueReview || c.Difficulty == nil || *c.Difficulty != 4.5 {
		t.Errorf("default queue for review card = %+v", c)
	}
	if c := first.Cards[1]; c.ID != 51 || c.Queue != progress.QueueSuspended {
		t.Errorf("auto id / explicit queue = %+v", c)
	}

	second := recs[1]
	if second.ID != 52 {
		t.Errorf("auto note id = %d, want 52", second.ID)
	}
	if len(second.Tags) != 2 || second.Tags[1] != "rang::A" {
		t.Errorf("tags with spaces should split: %v", second.Tags)
	}
	if c := second.Cards[0]; c.Kind != progress.KindLearning || c.Queue != progress.QueueLearn {
		t.Errorf("learning card = %+v", c)
	}

	if reg := recs[2]; len(reg.Cards) != 0 || reg.Tags[0] != "Matière::Pneumo" {
		t.Errorf("registry note = %+v", reg)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown type":       "notes:\n  - cards:\n      - {type: mystery}\n",
		"unknown queue":      "notes:\n  - cards:\n      - {type: new, queue: limbo}\n",
		"difficulty range":   "notes:\n  - cards:\n      - {type: review, difficulty: 11}\n",
		"negative interval":  "notes:\n  - cards:\n      - {type: review, ivl: -1}\n",
		"malformed document": "notes: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			} else if !strings.HasPrefix(err.Error(), "deck: ") {
				t.Errorf("error not prefixed: %v", err)
			}
		})
	}
}
