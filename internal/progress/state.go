// Package progress computes per-tag learning-progress statistics over a
// collection of reviewed flashcards in a single batch scan.
package progress

// CardState is the discrete review state of a card or of a whole note.
type CardState string

// Card states. The declaration order is not the aggregation priority; see
// ReduceNote.
const (
	StateNew        CardState = "new"
	StateLearning   CardState = "learning"
	StateRelearning CardState = "relearning"
	StateRecent     CardState = "recent"
	StateMature     CardState = "mature"
	StateSuspended  CardState = "suspended"
	StateBuried     CardState = "buried"
	StateOther      CardState = "other"
)

// AllStates lists every state in reporting order.
var AllStates = [...]CardState{
	StateNew,
	StateLearning,
	StateRelearning,
	StateRecent,
	StateMature,
	StateSuspended,
	StateBuried,
	StateOther,
}

// Kind is the raw card type code stored in the collection.
type Kind int

// Card type codes.
const (
	KindNew        Kind = 0
	KindLearning   Kind = 1
	KindReview     Kind = 2
	KindRelearning Kind = 3
)

// Queue is the raw queue code stored in the collection.
type Queue int

// Queue codes.
const (
	QueueBuried    Queue = -2
	QueueSuspended Queue = -1
	QueueNew       Queue = 0
	QueueLearn     Queue = 1
	QueueReview    Queue = 2
	QueueDayLearn  Queue = 3
)

// DefaultMatureInterval is the interval in days from which a review card is mature.
const DefaultMatureInterval = 21

func (q Queue) inLearning() bool {
	return q == QueueLearn || q == QueueDayLearn
}

// Classify maps raw scheduling fields to a CardState. The order of the checks
// matters: exclusion queues win over the card type, and the learning queue
// wins over the review interval. Unknown codes fall through to StateOther.
func Classify(kind Kind, queue Queue, interval, matureInterval int) CardState {
	switch queue {
	case QueueSuspended:
		return StateSuspended
	case QueueBuried:
		return StateBuried
	}

	if kind == KindNew {
		return StateNew
	}

	if queue.inLearning() {
		if kind == KindReview {
			return StateRelearning
		}
		return StateLearning
	}

	switch kind {
	case KindReview:
		if interval >= matureInterval {
			return StateMature
		}
		return StateRecent
	case KindRelearning:
		return StateRelearning
	case KindLearning:
		return StateLearning
	}
	return StateOther
}
