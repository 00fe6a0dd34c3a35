package profiler

import (
	"errors"
	"testing"
	"time"
)

func TestMeasure(t *testing.T) {
	p := NewProfiler(false)
	sink := make([][]byte, 0, 8)

	err := p.Measure("load", func() error {
		for i := 0; i < 8; i++ {
			sink = append(sink, make([]byte, 1<<16))
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	samples := p.Samples()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Label != "load" || samples[0].Duration < time.Millisecond {
		t.Fatalf("expected a load sample of at least 1ms, got %+v", samples[0])
	}
	if samples[0].AllocBytes < 8<<16 {
		t.Fatalf("expected at least %d allocated bytes, got %d", 8<<16, samples[0].AllocBytes)
	}
	_ = sink
}

func TestMeasureReturnsError(t *testing.T) {
	boom := errors.New("boom")
	p := NewProfiler(true)
	if err := p.Measure("broken", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(p.Samples()) != 1 {
		t.Fatalf("expected failed loads to be sampled")
	}
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	called := false
	if err := p.Measure("noop", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("expected fn to run without a profiler, got called=%v err=%v", called, err)
	}
	if p.Samples() != nil {
		t.Fatalf("expected no samples")
	}
}
