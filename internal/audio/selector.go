package audio

import (
	"math"
	"time"
)

// SelectorConfig tunes the hysteretic stream selector. NewSelector uses the
// values as given, zero values included; DefaultSelectorConfig returns the
// baseline tuning.
type SelectorConfig struct {
	StickyDuration  time.Duration
	Cooldown        time.Duration
	SwitchThreshold float64
}

// DefaultSelectorConfig returns the baseline tuning: 500ms sticky, 200ms
// cooldown, 15% relative-improvement threshold.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		StickyDuration:  500 * time.Millisecond,
		Cooldown:        200 * time.Millisecond,
		SwitchThreshold: 0.15,
	}
}

// Selector is a hysteretic picker that chooses one of several scored streams
// as the active one. It is not safe for concurrent use; callers serialize
// access (the Muxer holds it behind its own mutex).
type Selector struct {
	cfg SelectorConfig

	current    StreamID
	hasCurrent bool
	lastSwitch time.Time
}

// NewSelector builds a Selector with the given config. A zero-value
// SelectorConfig is valid (zero sticky duration, zero cooldown, zero
// threshold all have well-defined meaning in the selector's rules); callers
// wanting the baseline tuning pass DefaultSelectorConfig() explicitly.
func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Current returns the currently selected stream id, if any.
func (s *Selector) Current() (StreamID, bool) {
	return s.current, s.hasCurrent
}

// Select evaluates the selector's rules against a snapshot of per-stream
// scores and returns the (possibly updated) current stream id. now is passed
// in explicitly so tests can control time deterministically.
func (s *Selector) Select(scores map[StreamID]float64, now time.Time) (StreamID, bool) {
	argmax, argmaxScore, found := bestScore(scores)

	if !found {
		return s.current, s.hasCurrent
	}

	if s.hasCurrent {
		if currentScore, ok := scores[s.current]; !ok {
			// Current stream disappeared from the scores map: force-switch.
			s.switchTo(argmax, now)
			return s.current, true
		} else if now.Sub(s.lastSwitch) < s.cfg.StickyDuration {
			return s.current, true
		} else if argmax != s.current &&
			argmaxScore > currentScore*(1+s.cfg.SwitchThreshold) &&
			now.Sub(s.lastSwitch) > s.cfg.StickyDuration+s.cfg.Cooldown {
			s.switchTo(argmax, now)
			return s.current, true
		}
		return s.current, true
	}

	s.switchTo(argmax, now)
	return s.current, true
}

func (s *Selector) switchTo(id StreamID, now time.Time) {
	s.current = id
	s.hasCurrent = true
	s.lastSwitch = now
}

// bestScore returns the stream id with the highest finite score, ignoring
// non-finite scores. Ties keep the first-encountered winner in map
// iteration order, which is acceptable since callers only rely on strict
// improvement to trigger a switch.
func bestScore(scores map[StreamID]float64) (StreamID, float64, bool) {
	var (
		best      StreamID
		bestScore = math.Inf(-1)
		found     bool
	)
	for id, score := range scores {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if !found || score > bestScore {
			best = id
			bestScore = score
			found = true
		}
	}
	return best, bestScore, found
}
