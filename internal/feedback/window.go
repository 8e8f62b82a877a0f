package feedback

import (
	"github.com/vytor/reviewloop/internal/models"
)

// Trend classifications for recent performance.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Window is a bounded, most-recent-N buffer of answer events for one
// (learner, assessment) pair. It is constructed per request from persisted
// event history; there is no long-lived window object, so recomputing over
// the same events always yields the same metrics.
type Window struct {
	size   int
	events []models.AnswerEvent
}

// NewWindow builds a window over the given events, oldest first, keeping only
// the most recent size entries.
func NewWindow(size int, events []models.AnswerEvent) *Window {
	if size < 1 {
		size = 1
	}
	if len(events) > size {
		events = events[len(events)-size:]
	}
	// Copy so later appends by the caller cannot alias the window.
	buf := make([]models.AnswerEvent, len(events))
	copy(buf, events)
	return &Window{size: size, events: buf}
}

// Append adds a new event, evicting the oldest once the bound is exceeded.
func (w *Window) Append(event models.AnswerEvent) {
	w.events = append(w.events, event)
	if len(w.events) > w.size {
		w.events = w.events[len(w.events)-w.size:]
	}
}

// Len returns the number of events currently held.
func (w *Window) Len() int {
	return len(w.events)
}

// Full reports whether the window has reached its bound.
func (w *Window) Full() bool {
	return len(w.events) >= w.size
}

// Events returns the buffered events, oldest first.
func (w *Window) Events() []models.AnswerEvent {
	return w.events
}

// Accuracy returns the fraction of correct answers in the window, or 1.0 for
// an empty window (no evidence of trouble yet).
func (w *Window) Accuracy() float64 {
	if len(w.events) == 0 {
		return 1.0
	}
	correct := 0
	for _, e := range w.events {
		if e.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(w.events))
}

// IncorrectStreak returns the length of the trailing run of incorrect answers.
func (w *Window) IncorrectStreak() int {
	streak := 0
	for i := len(w.events) - 1; i >= 0; i-- {
		if w.events[i].IsCorrect {
			break
		}
		streak++
	}
	return streak
}

// Trend compares the accuracy of the window's first half against its second
// half. A drop beyond delta classifies as declining, a rise as improving.
// Windows too small to split are stable by definition.
func (w *Window) Trend(delta float64) string {
	if len(w.events) < 4 {
		return TrendStable
	}
	mid := len(w.events) / 2
	first := accuracyOf(w.events[:mid])
	second := accuracyOf(w.events[mid:])

	switch {
	case second-first > delta:
		return TrendImproving
	case first-second > delta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// Categories returns the distinct answer categories present in the window,
// in first-seen order.
func (w *Window) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range w.events {
		if e.Category == "" || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		out = append(out, e.Category)
	}
	return out
}

func accuracyOf(events []models.AnswerEvent) float64 {
	if len(events) == 0 {
		return 1.0
	}
	correct := 0
	for _, e := range events {
		if e.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(events))
}
