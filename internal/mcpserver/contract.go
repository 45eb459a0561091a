package mcpserver

// TagConventions describes how the collection's tags are read by the
// progress statistics, for LLM consumers choosing tools and arguments.
const TagConventions = `# Tag Conventions

Progress is computed from the tags of the notes in the collection. Tags are
hierarchical: segments are separated by ` + "`::`" + `.

## Units

| Mode | Tags reported as units | Example |
|---|---|---|
| ` + "`items`" + ` | tags starting with ` + "`EDN::item-`" + ` | ` + "`EDN::item-001-Alpha`" + ` |
| ` + "`sdd`" + ` | tags starting with ` + "`EDN::SDD`" + `, ` + "`EDN::SSDD`" + `, ` + "`SDD`" + ` or ` + "`SSDD`" + ` (any case) | ` + "`EDN::SDD-010-Douleur`" + ` |
| ` + "`subject`" + ` | every other tag, except technical ones (leech, marked, source...) | ` + "`Matière::Cardio`" + ` |

A unit aggregates the notes tagged with it **and with any of its descendants**:
` + "`EDN::item-001-Alpha::Sub`" + ` counts toward ` + "`EDN::item-001-Alpha`" + `.
Children are only listed as separate units with ` + "`include_children`" + `.

## Rank

Notes tagged ` + "`rang::A`" + ` or ` + "`rang::B`" + ` carry the exam rank of their
knowledge. Use ` + "`only_rang`" + ` or ` + "`exclude_rang`" + ` with the bare value (` + "`A`" + `).

## Statistics

- A note counts once, in the state of its least advanced active card
  (new, learning, relearning, recent, mature, suspended, buried, other).
- ` + "`mastery`" + ` is the share of notes whose active cards are all mature (interval >= 21 days).
- ` + "`difficulty`" + ` is the mean FSRS difficulty rescaled to 0..1, sampled on the first notes.
- Units whose cards are almost all suspended are hidden from overviews but
  still answer ` + "`get_tag_stats`" + `.
`
