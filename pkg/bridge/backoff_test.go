// Copyright 2025 Certen Protocol

package bridge

import (
	"testing"
	"time"
)

func TestBackoffDoublesEachAttempt(t *testing.T) {
	cases := []struct {
		attempt uint64
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
	}
	for _, c := range cases {
		if got := Backoff(c.attempt); got != c.want {
			t.Errorf("Backoff(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffDoesNotOverflow(t *testing.T) {
	// MaxSigningAttempts and MaxExecutionAttempts are both 16; a shift
	// well past that must still return a sane, positive duration rather
	// than wrapping around to something tiny or negative.
	got := Backoff(MaxSigningAttempts)
	if got <= 0 {
		t.Fatalf("Backoff(%d) = %v, want a positive duration", uint64(MaxSigningAttempts), got)
	}

	got = Backoff(1000)
	if got <= 0 {
		t.Fatalf("Backoff(1000) = %v, want a positive duration", got)
	}
}
