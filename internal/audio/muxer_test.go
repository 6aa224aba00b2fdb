package audio

import (
	"testing"
	"time"
)

func TestMuxerForwardsOnlySelectedStream(t *testing.T) {
	cfg := DefaultMuxerConfig(1000)
	cfg.ScoreIntervalMs = 10
	cfg.ScoringWindowMs = 10
	cfg.Selector.StickyDuration = 0
	cfg.Selector.Cooldown = 0
	m := NewMuxer(cfg)

	loud := make([]int16, 20)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 20000
		} else {
			loud[i] = -20000
		}
	}
	quiet := make([]int16, 20)

	m.PushSamples("loud", loud)
	m.PushSamples("quiet", quiet)

	select {
	case c := <-m.Output():
		if c.Stream != "loud" {
			t.Fatalf("expected forwarded chunk from loud stream, got %s", c.Stream)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a forwarded chunk")
	}

	select {
	case c := <-m.Output():
		t.Fatalf("did not expect a second forwarded chunk yet, got %v", c)
	default:
	}
}

func TestMuxerFlushDrainsNonSelected(t *testing.T) {
	cfg := DefaultMuxerConfig(1000)
	cfg.ScoreIntervalMs = 1000000 // avoid scoring during this test
	m := NewMuxer(cfg)

	m.AddStream("a")
	m.AddStream("b")
	m.PushSamples("a", []int16{1, 2, 3})
	m.PushSamples("b", []int16{4, 5, 6})

	m.Flush()

	seen := map[StreamID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case c := <-m.Output():
			seen[c.Stream] = true
		case <-time.After(time.Second):
			t.Fatal("expected flushed chunks")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both streams flushed, got %v", seen)
	}
}
