package syncqueue

import (
	"testing"
	"time"
)

func TestRetryDelayGrows(t *testing.T) {
	// Jitter is ±20%, so compare against the widest bounds per attempt
	cases := []struct {
		attempts int
		base     time.Duration
	}{
		{1, 30 * time.Second},
		{2, 60 * time.Second},
		{3, 2 * time.Minute},
		{4, 4 * time.Minute},
		{5, 8 * time.Minute},
		{6, 16 * time.Minute},
	}

	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			got := RetryDelay(tc.attempts)
			min := time.Duration(float64(tc.base) * 0.8)
			max := time.Duration(float64(tc.base) * 1.2)
			if got < min || got > max {
				t.Fatalf("RetryDelay(%d) = %v, want within [%v, %v]", tc.attempts, got, min, max)
			}
		}
	}
}

func TestRetryDelayCap(t *testing.T) {
	for _, attempts := range []int{7, 10, 100} {
		for i := 0; i < 50; i++ {
			got := RetryDelay(attempts)
			max := time.Duration(float64(30*time.Minute) * 1.2)
			if got > max {
				t.Fatalf("RetryDelay(%d) = %v exceeds the 30m cap plus jitter", attempts, got)
			}
		}
	}
}

func TestRetryDelayClampsBadInput(t *testing.T) {
	got := RetryDelay(0)
	min := time.Duration(float64(30*time.Second) * 0.8)
	max := time.Duration(float64(30*time.Second) * 1.2)
	if got < min || got > max {
		t.Errorf("RetryDelay(0) = %v, want first-attempt delay", got)
	}
}
