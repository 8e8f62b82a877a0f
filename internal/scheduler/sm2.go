package scheduler

import (
	"math"
	"time"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
)

const (
	// MinEaseFactor is the classic SM-2 floor.
	MinEaseFactor = 1.3
	// MaxEaseFactor caps runaway growth on long easy streaks.
	MaxEaseFactor = 3.0
	// DefaultEaseFactor seeds new items when no ability data exists.
	DefaultEaseFactor = 2.5

	// PassingQuality is the lowest quality counted as successful recall.
	PassingQuality = 3
)

// Config holds the tunable scheduling parameters. Ability above Baseline
// widens intervals and ability below compresses them; AbilityWeight sets how
// strongly, and the scale is clamped to [ScaleMin, ScaleMax].
type Config struct {
	Baseline      float64
	AbilityWeight float64
	ScaleMin      float64
	ScaleMax      float64
	EasyBonus     float64
	HardPenalty   float64
}

// DefaultConfig returns the scheduling parameters used when none are supplied.
func DefaultConfig() Config {
	return Config{
		Baseline:      0.0,
		AbilityWeight: 0.1,
		ScaleMin:      0.7,
		ScaleMax:      1.5,
		EasyBonus:     1.3,
		HardPenalty:   0.8,
	}
}

// State is the scheduling state of one review item.
type State struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// NextState is the result of applying one review.
type NextState struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	NextReviewAt time.Time
}

// Preview maps the four canonical quality buckets to the interval (in days)
// each would produce, without committing any state.
type Preview struct {
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// ComputeNextState applies an SM-2 variant review to state. quality is the
// learner's 0-5 recall grade; ability is the learner's current estimate used
// to scale the resulting interval. The call is pure: it mutates nothing and
// persistence belongs to the caller.
func ComputeNextState(cfg Config, state State, quality int, ability float64, now time.Time) (NextState, error) {
	if quality < 0 || quality > 5 {
		return NextState{}, errors.NewInvalidQualityError(quality)
	}

	ef := state.EaseFactor
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	ef = ef + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	ef = clamp(ef, MinEaseFactor, MaxEaseFactor)

	var interval, repetitions int
	if quality < PassingQuality {
		repetitions = 0
		interval = 1
	} else {
		repetitions = state.Repetitions + 1
		switch repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = int(math.Round(float64(state.IntervalDays) * ef))
		}

		switch quality {
		case 5:
			interval = int(math.Round(float64(interval) * cfg.EasyBonus))
		case 3:
			interval = int(math.Round(float64(interval) * cfg.HardPenalty))
		}

		interval = int(math.Round(float64(interval) * cfg.abilityScale(ability)))
		if interval < 1 {
			interval = 1
		}
	}

	return NextState{
		EaseFactor:   ef,
		IntervalDays: interval,
		Repetitions:  repetitions,
		NextReviewAt: now.AddDate(0, 0, interval),
	}, nil
}

// PreviewIntervals computes what the interval would be for each quality
// bucket. Errors are impossible here since all four qualities are in domain.
func PreviewIntervals(cfg Config, state State, ability float64, now time.Time) Preview {
	again, _ := ComputeNextState(cfg, state, 1, ability, now)
	hard, _ := ComputeNextState(cfg, state, 3, ability, now)
	good, _ := ComputeNextState(cfg, state, 4, ability, now)
	easy, _ := ComputeNextState(cfg, state, 5, ability, now)
	return Preview{
		Again: again.IntervalDays,
		Hard:  hard.IntervalDays,
		Good:  good.IntervalDays,
		Easy:  easy.IntervalDays,
	}
}

// InitialEaseFactor maps the gap between learner ability and item difficulty
// to a starting ease factor. Harder items (negative gap) start with a lower
// EF so early intervals stay short.
func InitialEaseFactor(ability, difficulty float64) float64 {
	gap := ability - difficulty
	var ef float64
	switch {
	case gap < -1.5:
		ef = 1.4
	case gap < -1:
		ef = 1.7
	case gap < -0.5:
		ef = 2.0
	case gap < 0:
		ef = 2.3
	case gap < 0.5:
		ef = DefaultEaseFactor
	case gap < 1:
		ef = 2.7
	default:
		ef = 2.9
	}
	return clamp(ef, MinEaseFactor, MaxEaseFactor)
}

// StateOf extracts the scheduling state from a review item.
func StateOf(item models.ReviewItem) State {
	return State{
		EaseFactor:   item.EaseFactor,
		IntervalDays: item.IntervalDays,
		Repetitions:  item.Repetitions,
	}
}

// abilityScale converts an ability estimate into an interval multiplier.
// Exactly 1.0 at the baseline so at-baseline learners get classic SM-2.
func (c Config) abilityScale(ability float64) float64 {
	scale := 1.0 + c.AbilityWeight*(ability-c.Baseline)
	return clamp(scale, c.ScaleMin, c.ScaleMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
