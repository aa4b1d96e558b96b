package retry

import (
	"context"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Base: 100 * time.Millisecond, Max: 5 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{10, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := b.Next(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, got, tc.want)
		}
	}
}

func TestWaitHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := ExponentialBackoff{Base: time.Minute}
	if err := Wait(ctx, b, 1); err == nil {
		t.Fatal("expected context error")
	}
}
