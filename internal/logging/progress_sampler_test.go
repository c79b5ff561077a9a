package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
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

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "detect") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(0, "detect") {
		t.Fatal("first event should log")
	}
	if s.ShouldLog(5, "detect") {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog(10, "detect") {
		t.Fatal("next bucket should log")
	}
	if !s.ShouldLog(100, "detect") {
		t.Fatal("completion should log")
	}
	if s.ShouldLog(150, "detect") {
		t.Fatal("values above 100 clamp to the final bucket")
	}
	if !s.ShouldLog(0, "render") {
		t.Fatal("stage change should log and reset buckets")
	}
	if s.ShouldLog(-1, "render") {
		t.Fatal("unknown percent on same stage should not log")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "detect")
	s.Reset()
	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("reset left state: stage=%q bucket=%d", s.lastStage, s.lastBucket)
	}
	if !s.ShouldLog(50, "detect") {
		t.Fatal("expected log after reset")
	}
}
