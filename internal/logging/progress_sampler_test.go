package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "rendering") {
		t.Error("nil sampler should always log")
	}
}

func TestProgressSamplerStageChange(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(0, "rendering") {
		t.Fatal("first event should log")
	}
	if s.ShouldLog(0, "  rendering ") {
		t.Fatal("same stage and bucket should not log")
	}
	if !s.ShouldLog(0, "draining") {
		t.Fatal("stage change should log")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var emitted []float64
	for _, pct := range []float64{0, 10, 24, 25, 30, 50, 74, 99, 100, 100} {
		if s.ShouldLog(pct, "rendering") {
			emitted = append(emitted, pct)
		}
	}
	// 99 is the first value in the 75% bucket.
	want := []float64{0, 25, 50, 99, 100}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted %v, want %v", emitted, want)
		}
	}
}

func TestProgressSamplerUnknownPercent(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(-1, "rendering") {
		t.Fatal("stage change should log even without percent")
	}
	if s.ShouldLog(-1, "rendering") {
		t.Fatal("unknown percent without stage change should not log")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "rendering")
	s.Reset()
	if !s.ShouldLog(50, "rendering") {
		t.Fatal("reset sampler should log again")
	}
}

func TestFramePercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, -1},
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{12, 10, 100},
	}
	for _, tt := range tests {
		if got := FramePercent(tt.done, tt.total); got != tt.want {
			t.Errorf("FramePercent(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}
