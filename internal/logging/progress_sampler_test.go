package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -3} {
		s := NewProgressSampler(size)
		if s.bucketSize != 10 {
			t.Errorf("bucketSize = %v, want 10", s.bucketSize)
		}
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{10, false},
		{25, true},
		{49.9, false},
		{-1, false},
		{80, true},
		{100, true},
		{140, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(0) {
		t.Fatal("expected first bucket to log after reset")
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50) {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}
