package gateway

import (
	"testing"
	"time"
)

func TestBreaker_OpensAndProbes(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !b.TryAcquire() {
			t.Fatal("closed breaker must admit")
		}
		b.OnFailure()
	}
	if b.TryAcquire() {
		t.Fatal("open breaker must reject")
	}
	if !b.Open() {
		t.Fatal("expected Open() == true")
	}

	now = now.Add(2 * time.Second)
	if !b.TryAcquire() {
		t.Fatal("expected a probe after openFor")
	}
	if b.TryAcquire() {
		t.Fatal("only one probe may be in flight")
	}

	b.OnSuccess()
	if !b.TryAcquire() {
		t.Fatal("breaker should close after successful probe")
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	b.TryAcquire()
	b.OnFailure()

	now = now.Add(2 * time.Second)
	if !b.TryAcquire() {
		t.Fatal("expected probe")
	}
	b.OnFailure()
	if b.TryAcquire() {
		t.Fatal("failed probe must reopen the breaker")
	}
}
