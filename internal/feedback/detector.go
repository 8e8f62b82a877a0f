package feedback

import (
	"github.com/vytor/reviewloop/internal/models"
)

// Config holds the tunable trigger thresholds. Accuracy fields are fractions
// in [0,1]: dropping below MildAccuracy fires a mild accuracy trigger,
// below ModerateAccuracy a moderate one. SevereStreak is the length of an
// all-incorrect trailing run that fires a severe trigger. TrendDelta feeds
// the window's trend split.
type Config struct {
	WindowSize       int
	MildAccuracy     float64
	ModerateAccuracy float64
	SevereStreak     int
	TrendDelta       float64
}

// DefaultConfig returns the detector thresholds used when none are supplied.
func DefaultConfig() Config {
	return Config{
		WindowSize:       5,
		MildAccuracy:     0.6,
		ModerateAccuracy: 0.4,
		SevereStreak:     5,
		TrendDelta:       0.2,
	}
}

// Result is the outcome of one detection pass. RecommendedAction follows the
// highest-severity trigger through a fixed severity→action mapping.
type Result struct {
	Triggered         bool                     `json:"triggered"`
	Triggers          []models.DetectedTrigger `json:"triggers,omitempty"`
	RecommendedAction models.Action            `json:"recommended_action"`
	Severity          models.Severity          `json:"severity,omitempty"`
	Accuracy          float64                  `json:"accuracy"`
	Trend             string                   `json:"trend"`
}

// Detector evaluates a window of recent answers against its thresholds.
// Detection is pure: identical windows always produce identical results.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.SevereStreak < 1 {
		cfg.SevereStreak = DefaultConfig().SevereStreak
	}
	return &Detector{cfg: cfg}
}

// WindowSize returns the configured window bound.
func (d *Detector) WindowSize() int {
	return d.cfg.WindowSize
}

// Detect recomputes the window's metrics and reports any fired triggers.
// Accuracy triggers only fire once the window is full; a half-empty window
// after one wrong answer is noise, not a pattern.
func (d *Detector) Detect(window *Window) Result {
	accuracy := window.Accuracy()
	trend := window.Trend(d.cfg.TrendDelta)

	var triggers []models.DetectedTrigger

	if streak := window.IncorrectStreak(); streak >= d.cfg.SevereStreak {
		triggers = append(triggers, models.DetectedTrigger{
			Kind:       models.TriggerStreakFailure,
			Severity:   models.SeveritySevere,
			Value:      float64(streak),
			Threshold:  float64(d.cfg.SevereStreak),
			Categories: window.Categories(),
		})
	}

	if window.Full() && accuracy < d.cfg.MildAccuracy {
		severity := models.SeverityMild
		if accuracy < d.cfg.ModerateAccuracy {
			severity = models.SeverityModerate
		}
		triggers = append(triggers, models.DetectedTrigger{
			Kind:       models.TriggerAccuracyDrop,
			Severity:   severity,
			Value:      accuracy,
			Threshold:  d.cfg.MildAccuracy,
			Categories: window.Categories(),
		})
	}

	result := Result{
		Triggered:         len(triggers) > 0,
		Triggers:          triggers,
		RecommendedAction: models.ActionNone,
		Accuracy:          accuracy,
		Trend:             trend,
	}

	if len(triggers) > 0 {
		top := triggers[0]
		for _, t := range triggers[1:] {
			if t.Severity.Rank() > top.Severity.Rank() {
				top = t
			}
		}
		result.Severity = top.Severity
		result.RecommendedAction = actionFor(top.Severity)
	}

	return result
}

// actionFor is the fixed severity→action mapping: severe performance collapse
// injects immediate review, a moderate drop reinforces the weak topics, and a
// mild dip gets no automated intervention.
func actionFor(severity models.Severity) models.Action {
	switch severity {
	case models.SeveritySevere:
		return models.ActionInjectReview
	case models.SeverityModerate:
		return models.ActionReinforceTopic
	default:
		return models.ActionNone
	}
}
