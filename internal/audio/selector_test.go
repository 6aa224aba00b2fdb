package audio

import (
	"math"
	"testing"
	"time"
)

func TestSelectorNoHysteresisStrictThreshold(t *testing.T) {
	s := NewSelector(SelectorConfig{StickyDuration: 0, Cooldown: 0, SwitchThreshold: 0.15})
	now := time.Now()

	cur, _ := s.Select(map[StreamID]float64{"a": 1.0}, now)
	if cur != "a" {
		t.Fatalf("expected a, got %s", cur)
	}

	// Only 10% better: should not switch.
	cur, _ = s.Select(map[StreamID]float64{"a": 1.0, "b": 1.10}, now.Add(time.Millisecond))
	if cur != "a" {
		t.Fatalf("expected to stay on a, got %s", cur)
	}

	// Strictly >15% better: should switch.
	cur, _ = s.Select(map[StreamID]float64{"a": 1.0, "b": 1.20}, now.Add(2*time.Millisecond))
	if cur != "b" {
		t.Fatalf("expected switch to b, got %s", cur)
	}
}

func TestSelectorStickyDurationBlocksSwitch(t *testing.T) {
	s := NewSelector(SelectorConfig{StickyDuration: 100 * time.Millisecond, Cooldown: 0, SwitchThreshold: 0.15})
	now := time.Now()

	s.Select(map[StreamID]float64{"a": 1.0}, now)
	cur, _ := s.Select(map[StreamID]float64{"a": 1.0, "b": 10.0}, now.Add(50*time.Millisecond))
	if cur != "a" {
		t.Fatalf("expected no switch within sticky duration, got %s", cur)
	}
}

func TestSelectorIgnoresNaN(t *testing.T) {
	s := NewSelector(DefaultSelectorConfig())
	now := time.Now()
	cur, ok := s.Select(map[StreamID]float64{"a": math.NaN()}, now)
	if ok {
		t.Fatalf("expected no selection from all-NaN scores, got %s", cur)
	}
}

func TestSelectorReplacesDisappearedCurrent(t *testing.T) {
	s := NewSelector(SelectorConfig{StickyDuration: 0, Cooldown: 0, SwitchThreshold: 0.15})
	now := time.Now()
	s.Select(map[StreamID]float64{"a": 1.0}, now)
	cur, _ := s.Select(map[StreamID]float64{"b": 0.5}, now.Add(time.Second))
	if cur != "b" {
		t.Fatalf("expected force-switch to b when a disappears, got %s", cur)
	}
}

func TestSelectorStreamSwitchScenario(t *testing.T) {
	// Default tuning: sticky=500ms cooldown=200ms.
	s := NewSelector(SelectorConfig{StickyDuration: 500 * time.Millisecond, Cooldown: 200 * time.Millisecond, SwitchThreshold: 0.15})
	start := time.Now()

	cur, _ := s.Select(map[StreamID]float64{"A": 0.6, "B": 0.55}, start)
	if cur != "A" {
		t.Fatalf("expected A selected first, got %s", cur)
	}

	cur, _ = s.Select(map[StreamID]float64{"A": 0.6, "B": 0.55}, start.Add(400*time.Millisecond))
	if cur != "A" {
		t.Fatalf("expected to remain on A (not >15%% better), got %s", cur)
	}

	cur, _ = s.Select(map[StreamID]float64{"A": 0.6, "B": 0.9}, start.Add(750*time.Millisecond))
	if cur != "B" {
		t.Fatalf("expected switch to B after sticky+cooldown elapsed with >15%% improvement, got %s", cur)
	}
}
